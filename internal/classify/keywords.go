package classify

import "regexp"

// Keyword tables are matched against case- and accent-folded text, so every
// entry here is lowercase ASCII (or punctuation such as "+").

var movieKeywords = []string{
	"movie",
	"filme",
	"cinema",
	"vod",
	"lancamento",
	"4k uhd",
}

var seriesKeywords = []string{
	"series",
	"serie",
	"temporada",
	"season",
	"anime",
	"novela",
	"dorama",
	"s01e",
	"episodio",
}

// seriesPatterns detect episode markers in free text.
var seriesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`s\d+\s*e\d+`),
	regexp.MustCompile(`t\d+\s*e\d+`),
	regexp.MustCompile(`temporada\s*\d+`),
	regexp.MustCompile(`season\s*\d+`),
	regexp.MustCompile(`episodio\s*\d+`),
	regexp.MustCompile(`\bep\.?\s*\d+`),
}

// platforms are ordered so that longer names win over their prefixes
// ("hbo max" before "hbo").
var platforms = []string{
	"netflix",
	"hbo max",
	"hbo",
	"globoplay",
	"amazon prime",
	"prime video",
	"disney+",
	"disney plus",
	"star+",
	"paramount+",
	"paramount plus",
	"apple tv+",
	"apple tv",
	"crunchyroll",
	"discovery+",
	"pluto tv",
	"claro video",
	"directv go",
	"looke",
	"telecine",
	"mubi",
	"starz",
	"hulu",
	"peacock",
	"youtube",
	"funimation",
}

var genreWords = regexp.MustCompile(`\b(` +
	`terror|horror|comedia|comedy|acao|action|aventura|adventure|drama|romance|` +
	`suspense|thriller|ficcao|sci-fi|documentario|documentary|animacao|animation|` +
	`anime|infantil|kids|guerra|war|faroeste|western|crime|policial|fantasia|` +
	`fantasy|familia|family|musical|biografia|historia|misterio|mystery|religioso` +
	`)\b`)
