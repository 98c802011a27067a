package knowledge

// topicKeywords is the fixed catalogue embedded once for embedding-mode
// topic segmentation and matched by substring in keyword-fallback mode.
var topicKeywords = []string{
	"人生", "仕事", "お金", "投資", "貯蓄", "結婚", "子育て", "健康",
	"成功", "失敗", "習慣", "目標", "時間管理", "人間関係", "信用", "価値観",
	"黄金率", "感謝", "挑戦", "学び", "キャリア", "起業", "節約", "老後",
}

// knownPeople is a regex-friendly set of known person names recognised
// during entity extraction. Matched literally, in order, against the
// concatenated topic text.
var knownPeople = []string{
	"本田健", "松下幸之助", "稲盛和夫", "孫正義", "渋沢栄一",
}

// knownConcepts is the substring set for concept entity extraction.
var knownConcepts = []string{
	"黄金率", "価値観", "信用", "人生", "習慣", "目標", "感謝", "成功法則",
}

// knownOrganizations is the substring set for organisation entity
// extraction.
var knownOrganizations = []string{
	"本田健オフィシャルサイト", "神戸大学", "松下電器", "ソフトバンク",
}

// highValueConcepts scores +2 on importance when any is present among a
// topic's extracted concepts.
var highValueConcepts = map[string]bool{
	"黄金率": true, "価値観": true, "信用": true, "人生": true,
}

// importanceLexicon is the fixed set of terms scanned for SemanticChunker
// keyword extraction, in addition to each object's own entity names.
var importanceLexicon = []string{
	"黄金率", "価値観", "信用", "人生", "習慣", "目標", "感謝", "成功",
	"挑戦", "学び", "投資", "貯蓄", "結婚", "子育て", "健康", "老後",
}

// advicePatternSuffixes closes a sentence as a principle/advice candidate
// during quote extraction.
var advicePatternSuffixes = []string{
	"ことが大切", "してはいけない", "べきです", "べきだ", "なんです",
}
