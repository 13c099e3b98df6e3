package embedding

import (
	"math"
	"strings"
	"unicode"
)

// Vector layout of the primary embedding. Term features, n-gram features and
// the fixed semantic block occupy disjoint index ranges.
const (
	Dimensions         = 512
	FallbackDimensions = 384

	termSlots     = 256 // term-frequency features, indices [0,256)
	ngramOffset   = 256 // bigram/trigram features, indices [256,384)
	ngramSlots    = 128
	semanticStart = 384 // fixed semantic features, indices [384,512)
)

// Engine is a deterministic, local text-to-vector encoder. Embed is a pure
// function: identical text always produces an identical vector, with no I/O
// and no external model.
type Engine struct{}

// NewEngine creates a new embedding engine.
func NewEngine() *Engine {
	return &Engine{}
}

// domainKeywords is the fixed research-domain taxonomy scored into the
// semantic block. Order is part of the vector layout, do not reorder.
var domainKeywords = []struct {
	name  string
	words []string
}{
	{"machine_learning", []string{"learning", "training", "model", "neural", "network", "gradient", "optimization", "supervised", "unsupervised", "regression"}},
	{"nlp", []string{"language", "text", "translation", "token", "corpus", "semantic", "syntax", "embedding", "transformer", "attention"}},
	{"vision", []string{"image", "visual", "detection", "segmentation", "recognition", "convolutional", "pixel", "object", "video", "camera"}},
	{"robotics", []string{"robot", "control", "motion", "planning", "manipulation", "sensor", "autonomous", "navigation", "actuator", "kinematics"}},
	{"theory", []string{"theorem", "proof", "complexity", "bound", "algorithm", "convergence", "optimal", "polynomial", "approximation", "lemma"}},
	{"systems", []string{"distributed", "system", "performance", "latency", "throughput", "scalability", "memory", "hardware", "parallel", "cluster"}},
}

var methodIndicators = []string{"method", "approach", "algorithm", "technique", "framework", "architecture", "procedure", "propose"}

var resultIndicators = []string{"result", "accuracy", "performance", "improvement", "outperform", "evaluation", "benchmark", "baseline"}

var noveltyIndicators = []string{"novel", "new", "first", "state-of-the-art", "unprecedented", "introduce", "original"}

// Embed encodes text into a unit-length vector of Dimensions entries.
// Empty or whitespace-only text yields the zero vector. If the primary
// feature construction panics, Embed falls back to a simpler
// FallbackDimensions-sized encoding rather than failing the caller.
func (e *Engine) Embed(text string) (vec []float32) {
	defer func() {
		if r := recover(); r != nil {
			vec = e.embedFallback(text)
		}
	}()

	if strings.TrimSpace(text) == "" {
		return make([]float32, Dimensions)
	}

	tokens := tokenize(text)
	vec = make([]float32, Dimensions)

	termFeatures(vec, tokens)
	ngramFeatures(vec, tokens)
	semanticFeatures(vec, text, tokens)

	normalize(vec)
	return vec
}

// embedFallback is the simpler secondary encoding: term-frequency hashing
// only, over a smaller vector.
func (e *Engine) embedFallback(text string) []float32 {
	vec := make([]float32, FallbackDimensions)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for _, tok := range tokens {
		vec[hashString(tok)%FallbackDimensions] += 1.0 / float32(len(tokens))
	}

	normalize(vec)
	return vec
}

// tokenize lowercases, strips punctuation, splits on whitespace and drops
// tokens of length <= 2.
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// termFeatures writes term-frequency features into [0,termSlots) using two
// hash placements per token: a direct modulo index at full weight and a
// secondary mixed index at half weight.
func termFeatures(vec []float32, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}

	for tok, count := range freq {
		weight := float32(count) / float32(len(tokens))
		direct := hashString(tok) % termSlots
		secondary := mix(hashString(tok)) % termSlots

		vec[direct] += weight
		vec[secondary] += weight * 0.5
	}
}

// ngramFeatures writes bigram and trigram features into
// [ngramOffset,ngramOffset+ngramSlots), weighted by 1/sqrt(term count).
func ngramFeatures(vec []float32, tokens []string) {
	for n := 2; n <= 3; n++ {
		if len(tokens) < n {
			continue
		}
		weight := float32(1.0 / math.Sqrt(float64(n)))
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			idx := ngramOffset + int(mix(hashString(gram)))%ngramSlots
			vec[idx] += weight
		}
	}
}

// semanticFeatures fills the fixed block [semanticStart,Dimensions): one
// keyword-overlap score per taxonomy domain, followed by text statistics and
// paper-specific indicator densities.
func semanticFeatures(vec []float32, original string, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	totalLen := 0
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
		totalLen += len(tok)
	}

	idx := semanticStart
	for _, domain := range domainKeywords {
		hits := 0
		for _, word := range domain.words {
			if _, ok := tokenSet[word]; ok {
				hits++
			}
		}
		vec[idx] = float32(hits) / float32(len(domain.words))
		idx++
	}

	// Text statistics.
	vec[idx] = float32(totalLen) / float32(len(tokens)) / 10.0 // average token length, normalized
	idx++
	vec[idx] = float32(len(tokenSet)) / float32(len(tokens)) // type/token ratio
	idx++
	vec[idx] = capitalizedRatio(original)
	idx++

	// Paper-specific lexical scores.
	vec[idx] = indicatorDensity(tokens, methodIndicators)
	idx++
	vec[idx] = indicatorDensity(tokens, resultIndicators)
	idx++
	vec[idx] = indicatorDensity(tokens, noveltyIndicators)
}

func capitalizedRatio(text string) float32 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	capitalized := 0
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsUpper(r) {
			capitalized++
		}
	}
	return float32(capitalized) / float32(len(words))
}

func indicatorDensity(tokens []string, indicators []string) float32 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		for _, ind := range indicators {
			if strings.HasPrefix(tok, ind) {
				hits++
				break
			}
		}
	}
	return float32(hits) / float32(len(tokens))
}

// hashString is a small FNV-1a variant. Consistency across calls matters,
// the exact constants do not.
func hashString(s string) int {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return int(h & 0x7fffffff)
}

// mix applies an avalanche step so that the secondary placement is
// decorrelated from the direct one.
func mix(h int) uint32 {
	x := uint32(h)
	x ^= x >> 13
	x *= 0x5bd1e995
	x ^= x >> 15
	return x
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when the
// dimensions differ or either magnitude is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
