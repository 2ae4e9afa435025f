package epub

import (
	"golang.org/x/text/language"
)

// supportedLangs are the languages with a label table, English first so it
// doubles as the matcher default and the fallback table.
var supportedLangs = []language.Tag{
	language.English,
	language.Japanese,
	language.SimplifiedChinese,
	language.TraditionalChinese,
}

var labelMatcher = language.NewMatcher(supportedLangs)

var labelTables = map[language.Tag]map[string]string{
	language.English: {
		"toc":      "Table of Contents",
		"cover":    "Cover",
		"contents": "Contents",
		"untitled": "Untitled",
		"unknown":  "Unknown",
	},
	language.Japanese: {
		"toc":      "目次",
		"cover":    "表紙",
		"contents": "収録",
		"untitled": "無題",
		"unknown":  "不明",
	},
	language.SimplifiedChinese: {
		"toc":      "目录",
		"cover":    "封面",
		"contents": "目录",
		"untitled": "无题",
		"unknown":  "未知",
	},
	language.TraditionalChinese: {
		"toc":      "目錄",
		"cover":    "封面",
		"contents": "目錄",
		"untitled": "無題",
		"unknown":  "未知",
	},
}

// Translate resolves a generated-document label for the given language.
// Lookup order: the matched language table, then the English table, then the
// raw key itself.
func Translate(lang, key string) string {
	_, idx := language.MatchStrings(labelMatcher, lang)
	if table, ok := labelTables[supportedLangs[idx]]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if v, ok := labelTables[language.English][key]; ok {
		return v
	}
	return key
}
