package config

const (
	defaultLibraryDB = "~/.local/share/bibdup/library.db"
	defaultLogDir    = "~/.local/share/bibdup/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultAutoMergeThreshold = 85
	defaultFlagThreshold      = 70

	defaultDOIScore   = 100
	defaultISBNScore  = 95
	defaultPMIDScore  = 98
	defaultPMCIDScore = 98
	defaultArXivScore = 96
	defaultURLScore   = 88

	defaultMaxCandidates      = 5
	defaultFuzzyAuthorLimit   = 10
	defaultTitleFallbackLimit = 5
	defaultSearchPageSize     = 50

	defaultDeleteTimeoutSeconds      = 5
	defaultAdminDeleteTimeoutSeconds = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDB: defaultLibraryDB,
			LogDir:    defaultLogDir,
		},
		Thresholds: Thresholds{
			AutoMerge: defaultAutoMergeThreshold,
			Flag:      defaultFlagThreshold,
		},
		Scores: Scores{
			DOI:   defaultDOIScore,
			ISBN:  defaultISBNScore,
			PMID:  defaultPMIDScore,
			PMCID: defaultPMCIDScore,
			ArXiv: defaultArXivScore,
			URL:   defaultURLScore,
		},
		Limits: Limits{
			MaxCandidates:      defaultMaxCandidates,
			FuzzyAuthorLimit:   defaultFuzzyAuthorLimit,
			TitleFallbackLimit: defaultTitleFallbackLimit,
			SearchPageSize:     defaultSearchPageSize,
		},
		Merge: Merge{
			DeleteTimeoutSeconds:      defaultDeleteTimeoutSeconds,
			AdminDeleteTimeoutSeconds: defaultAdminDeleteTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
