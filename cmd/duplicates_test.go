package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WinnyKing57/WinClean-sub000/internal/dedup"
	"github.com/WinnyKing57/WinClean-sub000/internal/scanner"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

func TestDuplicateActions_KeptCopyLeadsTargets(t *testing.T) {
	policy := scanner.NewPolicy([]string{"/data/safe"}, []string{"/etc"})
	groups := []*types.DuplicateGroup{
		types.NewDuplicateGroup("abc123", 100, []string{
			"/data/safe/a/copy.bin",
			"/data/safe/b.bin",
		}),
	}

	actions := duplicateActions(groups, policy, dedup.StrategyShortestPath)
	require.Len(t, actions, 1)

	action := actions[0]
	assert.Equal(t, types.ActionRemoveDuplicateCopy, action.Kind)
	assert.Equal(t, []string{"/data/safe/b.bin", "/data/safe/a/copy.bin"}, action.TargetList())
	assert.Equal(t, int64(100), action.EstimatedBytes)
	assert.Equal(t, "duplicates", action.Category)

	// Every removal sits in a safe area, so the rating relaxes and no
	// backup is needed.
	assert.Equal(t, types.SafetyLevelSafe, action.Safety)
	assert.False(t, action.Reversible)
}

func TestDuplicateActions_OutsideSafeAreaStaysGuarded(t *testing.T) {
	policy := scanner.NewPolicy([]string{"/data/safe"}, []string{"/etc"})
	groups := []*types.DuplicateGroup{
		types.NewDuplicateGroup("def456", 50, []string{
			"/home/user/photo.jpg",
			"/home/user/backup/photo.jpg",
		}),
	}

	actions := duplicateActions(groups, policy, dedup.StrategyFirst)
	require.Len(t, actions, 1)

	assert.Equal(t, types.SafetyLevelModerate, actions[0].Safety)
	assert.True(t, actions[0].Reversible)
}

func TestDuplicateActions_ProtectedMemberSkipsWholeGroup(t *testing.T) {
	policy := scanner.NewPolicy(nil, []string{"/etc"})
	groups := []*types.DuplicateGroup{
		types.NewDuplicateGroup("ghi789", 10, []string{
			"/etc/app/config",
			"/home/user/config",
		}),
	}

	actions := duplicateActions(groups, policy, dedup.StrategyFirst)
	assert.Empty(t, actions)
}

func TestDuplicateActions_SingleMemberGroupYieldsNothing(t *testing.T) {
	policy := scanner.NewPolicy(nil, nil)
	groups := []*types.DuplicateGroup{
		types.NewDuplicateGroup("solo", 10, []string{"/home/user/only.txt"}),
	}

	actions := duplicateActions(groups, policy, dedup.StrategyFirst)
	assert.Empty(t, actions)
}
