package learning

import "encoding/json"

// Pattern types tracked per user. The first four carry accuracy confidence
// only; best_time and focus_blocks carry mined schedule data.
const (
	PatternDurationAccuracy             = "duration_accuracy"
	PatternCompletionLikelihoodAccuracy = "completion_likelihood_accuracy"
	PatternOptimalTimeAccuracy          = "optimal_time_accuracy"
	PatternPlanModeAccuracy             = "plan_mode_accuracy"
	PatternBestTime                     = "best_time"
	PatternFocusBlocks                  = "focus_blocks"
)

// HourStat ranks one hour of the day by on-time completion rate.
type HourStat struct {
	Hour           int     `json:"hour"`
	CompletionRate float64 `json:"completion_rate"`
}

// BestTimeData is the pattern_data variant for best_time.
type BestTimeData struct {
	BestHours []HourStat `json:"best_hours"`
}

// FocusBlockStat ranks one start hour by tracked-session frequency, with
// the dominant task category for that hour.
type FocusBlockStat struct {
	Hour        int    `json:"hour"`
	Sessions    int    `json:"sessions"`
	TopCategory string `json:"top_category,omitempty"`
}

// FocusBlocksData is the pattern_data variant for focus_blocks.
type FocusBlocksData struct {
	Blocks []FocusBlockStat `json:"blocks"`
}

// AccuracyData is the pattern_data variant for the accuracy pattern types.
type AccuracyData struct {
	LastAccuracy float64 `json:"last_accuracy"`
	Observations int     `json:"observations"`
}

// EncodePatternData renders a pattern_data variant as JSON.
func EncodePatternData(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeBestTime parses a best_time pattern_data document. Empty or invalid
// input yields an empty hour set, not an error, so a malformed row degrades
// to "no learned pattern".
func DecodeBestTime(raw []byte) BestTimeData {
	var data BestTimeData
	if len(raw) == 0 {
		return data
	}
	_ = json.Unmarshal(raw, &data)
	return data
}

// DecodeFocusBlocks parses a focus_blocks pattern_data document.
func DecodeFocusBlocks(raw []byte) FocusBlocksData {
	var data FocusBlocksData
	if len(raw) == 0 {
		return data
	}
	_ = json.Unmarshal(raw, &data)
	return data
}

// DecodeAccuracy parses an accuracy pattern_data document.
func DecodeAccuracy(raw []byte) AccuracyData {
	var data AccuracyData
	if len(raw) == 0 {
		return data
	}
	_ = json.Unmarshal(raw, &data)
	return data
}
