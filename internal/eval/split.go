package eval

import "math/rand"

// SplitTrainTest shuffles items with a fixed seed and cuts them at ratio.
// The same seed and input always give the same split; items is not modified.
func SplitTrainTest[T any](items []T, ratio float64, seed int64) (train, test []T) {
	shuffled := shuffle(items, seed)

	splitIdx := int(float64(len(shuffled)) * ratio)
	if splitIdx < 0 {
		splitIdx = 0
	}
	if splitIdx > len(shuffled) {
		splitIdx = len(shuffled)
	}
	return shuffled[:splitIdx], shuffled[splitIdx:]
}

// Folds partitions a seeded shuffle of items into k folds whose sizes differ
// by at most one. k is clamped to [1, len(items)].
func Folds[T any](items []T, k int, seed int64) [][]T {
	if len(items) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(items) {
		k = len(items)
	}

	shuffled := shuffle(items, seed)
	folds := make([][]T, k)
	start := 0
	for i := 0; i < k; i++ {
		size := len(shuffled) / k
		if i < len(shuffled)%k {
			size++
		}
		folds[i] = shuffled[start : start+size : start+size]
		start += size
	}
	return folds
}

func shuffle[T any](items []T, seed int64) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Partition splits labeled documents into positive and negative texts,
// preserving order.
func Partition(docs []Document) (positive, negative []string) {
	for _, d := range docs {
		if d.Positive {
			positive = append(positive, d.Text)
		} else {
			negative = append(negative, d.Text)
		}
	}
	return positive, negative
}
