package tokenizer

// DefaultLatinStopWords are high-frequency English words excluded from the
// index. Matching happens after lowercasing. Words that double as technology
// names ("go") are kept so technical text stays searchable.
var DefaultLatinStopWords = []string{
	"the", "be", "to", "of", "and", "in", "that", "have", "it",
	"for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her",
	"she", "or", "an", "will", "my", "one", "all", "would", "there",
	"their", "what", "so", "up", "out", "if", "about", "who", "get",
	"which", "me", "when", "can", "like", "no", "just", "him",
	"know", "take", "into", "your", "some", "could", "them", "see",
	"other", "than", "then", "now", "only", "its", "over", "also",
	"after", "use", "our", "how", "us", "is", "are", "was", "were",
	"been", "has", "had", "did", "does", "should", "may", "might",
	"am", "any", "each", "such", "very", "too", "more", "most",
}

// DefaultCJKStopWords are high-frequency Chinese function words excluded
// from the index. Kept deliberately small; over-aggressive filtering hurts
// recall more than the index bloat it saves.
var DefaultCJKStopWords = []string{
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人",
	"都", "一", "一个", "上", "也", "很", "到", "说", "要", "去",
	"你", "会", "着", "没有", "看", "好", "这", "那", "他", "她",
	"它", "们", "与", "及", "或", "而", "被", "把", "让", "给",
	"对", "向", "从", "为", "于", "之", "以", "因为", "所以",
	"但是", "如果", "这个", "那个", "什么", "怎么", "可以", "这样",
}

// BuildStopWordMap converts a stopword slice into a lookup set.
func BuildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
