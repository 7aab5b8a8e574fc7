package evaluation

import (
	"math"
	"strconv"
	"strings"

	"github.com/spigell/recruit-panel/internal/jsonx"
	"github.com/spigell/recruit-panel/internal/scoring"
	"github.com/spigell/recruit-panel/internal/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Field aliases, first match wins.
var (
	scoreKeys     = []string{"score", "total_score", "average_score"}
	strengthKeys  = []string{"strengths", "sterke_punten", "pros", "positives"}
	weaknessKeys  = []string{"weaknesses", "aandachtspunten", "zwakke_punten", "cons", "concerns"}
	analysisKeys  = []string{"analysis", "analyse", "toelichting", "summary", "reasoning"}
	bigHitsKeys   = []string{"big_hits", "grootste_pluspunt"}
	bigMissesKeys = []string{"big_misses", "grootste_minpunt"}
)

const (
	listSeparator  = "; "
	maxRawLogChars = 300
)

// normalizer turns raw model text into a Verdict.
type normalizer struct {
	thresholds scoring.Thresholds
	logger     *zap.Logger
}

// parse never fails: a response without a usable object yields a defaulted
// verdict. shapeOK reports whether the object was found.
func (n normalizer) parse(raw string) (v Verdict, shapeOK bool) {
	obj, err := jsonx.Extract(raw)
	if err != nil {
		n.logger.Warn("verdict json shape invalid",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, maxRawLogChars)),
		)
		return n.defaulted(), false
	}

	score := n.score(obj)
	v = Verdict{
		Score:          score,
		Strengths:      text(obj, strengthKeys, NotAvailable),
		Weaknesses:     text(obj, weaknessKeys, NotAvailable),
		Analysis:       text(obj, analysisKeys, NotAvailable),
		BigHits:        text(obj, bigHitsKeys, ""),
		BigMisses:      text(obj, bigMissesKeys, ""),
		Recommendation: n.thresholds.Recommend(score),
	}

	if claimed := strings.TrimSpace(gjson.Get(obj, "recommendation").String()); claimed != "" {
		parsed, ok := scoring.ParseRecommendation(claimed)
		if !ok || parsed != v.Recommendation {
			n.logger.Warn("mismatch_overridden",
				zap.String("model_recommendation", claimed),
				zap.String("derived_recommendation", string(v.Recommendation)),
				zap.Float64("score", score),
			)
		}
	}

	return v, true
}

func (n normalizer) defaulted() Verdict {
	return Verdict{
		Score:          scoring.Default,
		Strengths:      NotAvailable,
		Weaknesses:     NotAvailable,
		Analysis:       NotAvailable,
		Recommendation: n.thresholds.Recommend(scoring.Default),
	}
}

// score reads the first non-zero numeric alias and clamps it.
func (n normalizer) score(obj string) float64 {
	raw := scoring.Default
	source := ""
	for _, key := range scoreKeys {
		if f, ok := number(gjson.Get(obj, key)); ok && f != 0 {
			raw, source = f, key
			break
		}
	}

	clamped, changed := scoring.Clamp(raw)
	if changed {
		n.logger.Warn("score clamped",
			zap.String("field", source),
			zap.Float64("raw_score", raw),
			zap.Float64("score", clamped),
		)
	}
	return clamped
}

// number accepts JSON numbers and strings such as "7,5" or "8/10".
func number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		s := strings.TrimSpace(r.String())
		if idx := strings.Index(s, "/"); idx != -1 {
			s = strings.TrimSpace(s[:idx])
		}
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// text reads the first non-empty alias. Arrays are joined with "; ".
func text(obj string, keys []string, fallback string) string {
	for _, key := range keys {
		r := gjson.Get(obj, key)
		if !r.Exists() {
			continue
		}
		var s string
		switch {
		case r.IsArray():
			var parts []string
			for _, item := range r.Array() {
				if p := strings.TrimSpace(item.String()); p != "" {
					parts = append(parts, p)
				}
			}
			s = strings.Join(parts, listSeparator)
		case r.Type == gjson.String:
			s = strings.TrimSpace(r.String())
		case r.Type == gjson.Null:
			continue
		default:
			s = strings.TrimSpace(r.Raw)
		}
		if s != "" {
			return s
		}
	}
	return fallback
}
