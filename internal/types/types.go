package types

import (
	"fmt"
	"strings"
	"time"
)

type SafetyLevel string

const (
	SafetyLevelSafe     SafetyLevel = "safe"
	SafetyLevelModerate SafetyLevel = "moderate"
	SafetyLevelRisky    SafetyLevel = "risky"
)

// RiskRank places the level on the safe-to-risky scale. Unknown levels rank
// beyond risky so that safety filters never let them through.
func (s SafetyLevel) RiskRank() int {
	switch s {
	case SafetyLevelSafe:
		return 0
	case SafetyLevelModerate:
		return 1
	case SafetyLevelRisky:
		return 2
	default:
		return 3
	}
}

// MoreRiskyThan reports whether s is strictly riskier than other.
func (s SafetyLevel) MoreRiskyThan(other SafetyLevel) bool {
	return s.RiskRank() > other.RiskRank()
}

// ParseSafetyLevel validates a user-supplied safety level string.
func ParseSafetyLevel(s string) (SafetyLevel, error) {
	switch s {
	case "safe":
		return SafetyLevelSafe, nil
	case "moderate":
		return SafetyLevelModerate, nil
	case "risky":
		return SafetyLevelRisky, nil
	default:
		return "", fmt.Errorf("invalid safety level '%s' (use: safe, moderate, risky)", s)
	}
}

// ClampSafety caps level at max, keeping the safer of the two.
func ClampSafety(level, max SafetyLevel) SafetyLevel {
	if level.MoreRiskyThan(max) {
		return max
	}
	return level
}

// ActionKind identifies the mutation an action performs. The set is closed:
// the executor matches exhaustively and rejects anything else in real mode.
type ActionKind string

const (
	ActionDeleteFile          ActionKind = "delete_file"
	ActionDeleteDirectory     ActionKind = "delete_directory"
	ActionClearCache          ActionKind = "clear_cache"
	ActionVacuumDatabase      ActionKind = "vacuum_database"
	ActionRunDeclaredCommand  ActionKind = "run_declared_command"
	ActionRemoveDuplicateCopy ActionKind = "remove_duplicate_copy"
)

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionDeleteFile, ActionDeleteDirectory, ActionClearCache,
		ActionVacuumDatabase, ActionRunDeclaredCommand, ActionRemoveDuplicateCopy:
		return true
	}
	return false
}

// CleaningAction describes one proposed filesystem mutation. Target is
// interpreted per Kind: a single path for deletes and cache clears, a
// comma-joined path list (kept copy first) for duplicate removal, and a
// command line for declared commands.
type CleaningAction struct {
	Kind           ActionKind
	Target         string
	EstimatedBytes int64
	Description    string
	Safety         SafetyLevel
	Category       string
	Reversible     bool

	// BackupName is filled by the executor when a backup was created.
	BackupName string
}

// TargetList splits a comma-joined Target into its component paths.
func (a CleaningAction) TargetList() []string {
	if a.Target == "" {
		return nil
	}
	return strings.Split(a.Target, ",")
}

// JoinTargets builds a multi-path Target value.
func JoinTargets(paths []string) string {
	return strings.Join(paths, ",")
}

// CleaningResult records the outcome of exactly one executed action.
// ErrorMessage is non-empty iff Success is false. On a dry-run success
// FreedBytes always equals the action's estimate.
type CleaningResult struct {
	Action       CleaningAction
	Success      bool
	ErrorMessage string
	FreedBytes   int64
	Duration     time.Duration
}

// DuplicateGroup is a set of files sharing one content digest. Groups are
// immutable once built and only ever reported with two or more members.
type DuplicateGroup struct {
	Digest      string
	FileSize    int64
	Paths       []string
	WastedBytes int64
}

// NewDuplicateGroup derives the wasted-space metric from the member count,
// so the stored value can never drift from the formula size*(n-1).
func NewDuplicateGroup(digest string, fileSize int64, paths []string) *DuplicateGroup {
	var wasted int64
	if len(paths) > 1 {
		wasted = fileSize * int64(len(paths)-1)
	}
	return &DuplicateGroup{
		Digest:      digest,
		FileSize:    fileSize,
		Paths:       paths,
		WastedBytes: wasted,
	}
}

// DuplicateReport aggregates one scan's duplicate groups for display.
type DuplicateReport struct {
	Groups       []*DuplicateGroup
	GroupCount   int
	FileCount    int
	WastedBytes  int64
	LargestGroup *DuplicateGroup
}

// BucketStat accumulates a count and a byte total for one summary bucket.
type BucketStat struct {
	Count int
	Bytes int64
}

// CleaningSummary is a pure aggregation over a batch of actions. Largest is
// nil for an empty batch.
type CleaningSummary struct {
	TotalActions      int
	TotalBytes        int64
	ByCategory        map[string]BucketStat
	BySafety          map[SafetyLevel]BucketStat
	ReversibleActions int
	Largest           *CleaningAction
}

// ExecutionReport extends the summary with per-result outcome totals.
type ExecutionReport struct {
	Summary    CleaningSummary
	Succeeded  int
	Failed     int
	FreedBytes int64
	Duration   time.Duration
	Results    []CleaningResult
}

// Profile configures one scanner. Profiles come from the embedded defaults
// and the user overlay; Kind is a hint for path-based scanners, while app
// profiles derive kinds from the Commands and Databases lists.
type Profile struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Category   string      `yaml:"category"`
	Safety     SafetyLevel `yaml:"safety"`
	Kind       ActionKind  `yaml:"kind,omitempty"`
	Paths      []string    `yaml:"paths,omitempty"`
	Exclude    []string    `yaml:"exclude,omitempty"`
	Extensions []string    `yaml:"extensions,omitempty"`
	MinSizeKB  int64       `yaml:"min_size_kb,omitempty"`
	MaxAgeDays int         `yaml:"max_age_days,omitempty"`
	Reversible bool        `yaml:"reversible,omitempty"`
	Commands   []string    `yaml:"commands,omitempty"`
	Databases  []string    `yaml:"databases,omitempty"`
	Disabled   bool        `yaml:"disabled,omitempty"`
}

// MinSizeBytes converts the profile's KB threshold to bytes.
func (p Profile) MinSizeBytes() int64 {
	return p.MinSizeKB * 1024
}
