package analysis

import (
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Keyword tables for the deterministic heuristics. Matching is
// case-insensitive substring search over concatenated title and
// description text.
var topicKeywords = map[string][]string{
	"programming": {"programming", "coding", "developer", "software", "code"},
	"web development": {"web", "html", "css", "javascript", "frontend", "backend", "react", "node"},
	"data science": {"data science", "machine learning", "statistics", "pandas", "numpy", "analytics"},
	"devops": {"docker", "kubernetes", "ci/cd", "deployment", "terraform", "infrastructure"},
	"databases": {"sql", "database", "postgres", "mongodb", "redis", "query"},
	"mobile": {"android", "ios", "swift", "kotlin", "flutter", "mobile"},
	"design": {"design", "ui", "ux", "figma", "typography"},
	"music": {"music", "guitar", "piano", "song", "chord"},
	"fitness": {"workout", "fitness", "exercise", "yoga", "training"},
	"cooking": {"recipe", "cooking", "baking", "kitchen", "meal"},
	"language": {"english", "spanish", "grammar", "vocabulary", "pronunciation"},
	"math": {"math", "algebra", "calculus", "geometry", "equation"},
	"science": {"physics", "chemistry", "biology", "science", "experiment"},
	"business": {"business", "marketing", "startup", "entrepreneur", "finance"},
	"gaming": {"game", "gaming", "gameplay", "walkthrough", "speedrun"},
	"photography": {"photography", "camera", "photo", "lightroom", "editing"},
}

var themeKeywords = map[string][]string{
	"tutorial": {"tutorial", "how to", "step by step", "guide", "learn"},
	"course": {"course", "lesson", "lecture", "curriculum", "class"},
	"review": {"review", "comparison", "versus", "vs", "tested"},
	"project": {"project", "build", "create", "from scratch", "hands-on"},
	"interview": {"interview", "conversation", "podcast", "discussion", "q&a"},
	"documentary": {"documentary", "history", "story of", "explained"},
	"live": {"live", "stream", "session", "recording"},
	"tips": {"tips", "tricks", "mistakes", "best practices", "advice"},
}

var difficultyKeywords = map[string][]string{
	models.DifficultyBeginner:     {"beginner", "introduction", "intro", "basics", "fundamentals", "getting started", "101", "for dummies", "crash course"},
	models.DifficultyIntermediate: {"intermediate", "beyond basics", "practical", "in depth", "deep dive"},
	models.DifficultyAdvanced:     {"advanced", "expert", "mastery", "optimization", "internals", "architecture"},
}

// matchKeywords returns the table entries whose keywords hit the text,
// with per-entry hit counts, sorted by count descending
func matchKeywords(text string, table map[string][]string) ([]string, map[string]int) {
	hits := make(map[string]int)
	for label, keywords := range table {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits[label]++
			}
		}
	}

	labels := make([]string, 0, len(hits))
	for label := range hits {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if hits[labels[i]] != hits[labels[j]] {
			return hits[labels[i]] > hits[labels[j]]
		}
		return labels[i] < labels[j]
	})

	return labels, hits
}

// confidence scales with how many distinct entries hit, capped at 0.9.
// Heuristics never claim certainty.
func confidenceFor(matched int) float64 {
	if matched == 0 {
		return 0.3
	}
	c := 0.5 + float64(matched)*0.1
	if c > 0.9 {
		c = 0.9
	}
	return c
}

func analyzeTopics(text string) (models.Metadata, float64) {
	labels, _ := matchKeywords(text, topicKeywords)
	if len(labels) > 5 {
		labels = labels[:5]
	}
	if len(labels) == 0 {
		return models.Metadata{"topics": []string{"general"}}, 0.3
	}
	return models.Metadata{"topics": labels}, confidenceFor(len(labels))
}

func analyzeThemes(text string) (models.Metadata, float64) {
	labels, _ := matchKeywords(text, themeKeywords)
	if len(labels) > 3 {
		labels = labels[:3]
	}
	if len(labels) == 0 {
		return models.Metadata{"themes": []string{"general"}}, 0.3
	}
	return models.Metadata{"themes": labels}, confidenceFor(len(labels))
}

// analyzeDifficulty resolves by majority vote among the level hit counts,
// defaulting to intermediate at 0.5 when nothing hits
func analyzeDifficulty(text string) (models.Metadata, float64) {
	_, hits := matchKeywords(text, difficultyKeywords)

	level := models.DifficultyIntermediate
	best := 0
	for _, candidate := range []string{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced} {
		if hits[candidate] > best {
			best = hits[candidate]
			level = candidate
		}
	}

	if best == 0 {
		return models.Metadata{"difficulty": models.DifficultyIntermediate}, 0.5
	}

	total := hits[models.DifficultyBeginner] + hits[models.DifficultyIntermediate] + hits[models.DifficultyAdvanced]
	confidence := 0.5 + 0.4*float64(best)/float64(total)
	return models.Metadata{"difficulty": level}, confidence
}

// analyzeKeywords extracts the most frequent meaningful words
func analyzeKeywords(text string) (models.Metadata, float64) {
	counts := make(map[string]int)
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(word) < 4 || stopWords[word] {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > 10 {
		words = words[:10]
	}

	if len(words) == 0 {
		return models.Metadata{"keywords": []string{}}, 0.3
	}
	return models.Metadata{"keywords": words}, 0.7
}

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "your": true,
	"what": true, "when": true, "where": true, "will": true, "have": true,
	"about": true, "into": true, "more": true, "them": true, "then": true,
	"they": true, "these": true, "there": true, "their": true, "video": true,
	"part": true, "episode": true, "full": true,
}
