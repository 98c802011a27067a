package chunk

// importanceLexicon is the fixed set of terms scanned, in addition to a
// chunk's own entity names, when computing keyword metadata.
var importanceLexicon = []string{
	"黄金率", "価値観", "信用", "人生", "習慣", "目標", "感謝", "成功",
	"挑戦", "学び", "投資", "貯蓄", "結婚", "子育て", "健康", "老後",
}
