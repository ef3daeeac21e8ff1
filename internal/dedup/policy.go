package dedup

import (
	"time"

	"bibdup/internal/config"
)

// Policy centralizes decision thresholds, per-strategy scores, and search
// bounds for duplicate resolution.
type Policy struct {
	AutoMergeThreshold int
	FlagThreshold      int

	DOIScore   int
	ISBNScore  int
	PMIDScore  int
	PMCIDScore int
	ArXivScore int
	URLScore   int

	MaxCandidates      int
	FuzzyAuthorLimit   int
	TitleFallbackLimit int

	DeleteTimeout time.Duration
}

// DefaultPolicy returns the stock thresholds and strategy scores.
func DefaultPolicy() Policy {
	return Policy{
		AutoMergeThreshold: 85,
		FlagThreshold:      70,
		DOIScore:           100,
		ISBNScore:          95,
		PMIDScore:          98,
		PMCIDScore:         98,
		ArXivScore:         96,
		URLScore:           88,
		MaxCandidates:      5,
		FuzzyAuthorLimit:   10,
		TitleFallbackLimit: 5,
		DeleteTimeout:      5 * time.Second,
	}
}

// PolicyFromConfig builds a Policy from the loaded configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		AutoMergeThreshold: cfg.Thresholds.AutoMerge,
		FlagThreshold:      cfg.Thresholds.Flag,
		DOIScore:           cfg.Scores.DOI,
		ISBNScore:          cfg.Scores.ISBN,
		PMIDScore:          cfg.Scores.PMID,
		PMCIDScore:         cfg.Scores.PMCID,
		ArXivScore:         cfg.Scores.ArXiv,
		URLScore:           cfg.Scores.URL,
		MaxCandidates:      cfg.Limits.MaxCandidates,
		FuzzyAuthorLimit:   cfg.Limits.FuzzyAuthorLimit,
		TitleFallbackLimit: cfg.Limits.TitleFallbackLimit,
		DeleteTimeout:      time.Duration(cfg.Merge.DeleteTimeoutSeconds) * time.Second,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.AutoMergeThreshold <= 0 || p.AutoMergeThreshold > 100 {
		p.AutoMergeThreshold = d.AutoMergeThreshold
	}
	if p.FlagThreshold <= 0 || p.FlagThreshold > p.AutoMergeThreshold {
		p.FlagThreshold = d.FlagThreshold
	}
	if p.DOIScore <= 0 || p.DOIScore > 100 {
		p.DOIScore = d.DOIScore
	}
	if p.ISBNScore <= 0 || p.ISBNScore > 100 {
		p.ISBNScore = d.ISBNScore
	}
	if p.PMIDScore <= 0 || p.PMIDScore > 100 {
		p.PMIDScore = d.PMIDScore
	}
	if p.PMCIDScore <= 0 || p.PMCIDScore > 100 {
		p.PMCIDScore = d.PMCIDScore
	}
	if p.ArXivScore <= 0 || p.ArXivScore > 100 {
		p.ArXivScore = d.ArXivScore
	}
	if p.URLScore <= 0 || p.URLScore > 100 {
		p.URLScore = d.URLScore
	}
	if p.MaxCandidates <= 0 {
		p.MaxCandidates = d.MaxCandidates
	}
	if p.FuzzyAuthorLimit <= 0 {
		p.FuzzyAuthorLimit = d.FuzzyAuthorLimit
	}
	if p.TitleFallbackLimit <= 0 {
		p.TitleFallbackLimit = d.TitleFallbackLimit
	}
	if p.DeleteTimeout <= 0 {
		p.DeleteTimeout = d.DeleteTimeout
	}

	return p
}

// confidence classifies a score relative to the auto-merge threshold.
func (p Policy) confidence(score int) string {
	if score >= p.AutoMergeThreshold {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}
