package metrics

// BalancedClassWeights weights every sample inversely to the size of its
// class. Counts are returned as [negatives, positives]. With scaleByTotal
// the weights of each present class sum to len(labels).
func BalancedClassWeights(labels []bool, scaleByTotal bool) ([]float64, [2]int) {
	var counts [2]int
	for _, y := range labels {
		if y {
			counts[1]++
		} else {
			counts[0]++
		}
	}

	weights := make([]float64, len(labels))
	for i, y := range labels {
		if y {
			weights[i] = 1 / float64(counts[1])
		} else {
			weights[i] = 1 / float64(counts[0])
		}
		if scaleByTotal {
			weights[i] *= float64(len(labels))
		}
	}
	return weights, counts
}

// Confusion compares predicted labels against reference labels.
type Confusion struct {
	TP, FP, TN, FN int
}

// Compare counts agreements between pred and truth over their common prefix.
func Compare(pred, truth []bool) Confusion {
	var c Confusion
	n := min(len(pred), len(truth))
	for i := 0; i < n; i++ {
		switch {
		case pred[i] && truth[i]:
			c.TP++
		case pred[i]:
			c.FP++
		case truth[i]:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

func (c Confusion) Total() int { return c.TP + c.FP + c.TN + c.FN }

func (c Confusion) Accuracy() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(c.Total())
}

func (c Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

func (c Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}
