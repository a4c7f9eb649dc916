package stats

// OutlierSummary reports IQR-fence outliers for one column.
type OutlierSummary struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
	Lower      int     `json:"lower"`
	Upper      int     `json:"upper"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}

// IQROutliers counts values outside the Tukey fences
// [Q1 - 1.5·IQR, Q3 + 1.5·IQR].
func IQROutliers(values []float64) OutlierSummary {
	if len(values) == 0 {
		return OutlierSummary{}
	}
	d := Describe(values)
	iqr := d.Q3 - d.Q1
	lo := d.Q1 - 1.5*iqr
	hi := d.Q3 + 1.5*iqr

	var lower, upper int
	for _, v := range values {
		switch {
		case v < lo:
			lower++
		case v > hi:
			upper++
		}
	}
	total := lower + upper
	return OutlierSummary{
		Q1:         d.Q1,
		Q3:         d.Q3,
		IQR:        iqr,
		LowerFence: lo,
		UpperFence: hi,
		Lower:      lower,
		Upper:      upper,
		Total:      total,
		Percent:    float64(total) / float64(len(values)) * 100,
	}
}
