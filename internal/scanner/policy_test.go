package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

func TestPolicy_Allows_RejectsProtectedSubtree(t *testing.T) {
	p := NewPolicy(nil, []string{"/etc", "/home/user/docs"})

	assert.False(t, p.Allows("/etc/passwd"))
	assert.False(t, p.Allows("/home/user/docs/taxes/2023.pdf"))
	assert.False(t, p.Allows("/etc"), "the protected directory itself is off limits")
}

func TestPolicy_Allows_AcceptsUnrelatedPaths(t *testing.T) {
	p := NewPolicy(nil, []string{"/etc"})

	assert.True(t, p.Allows("/var/log/syslog"))
	assert.True(t, p.Allows("/etcetera/file"), "prefix match must stop at path boundaries")
}

func TestPolicy_Allows_StripsGlobTails(t *testing.T) {
	p := NewPolicy(nil, []string{"/docs/**", "/media/*"})

	assert.False(t, p.Allows("/docs/inner/file"))
	assert.False(t, p.Allows("/media/usb0"))
}

func TestPolicy_InSafeArea_MatchesDeclaredDirectories(t *testing.T) {
	p := NewPolicy([]string{"/tmp", "/var/tmp"}, nil)

	assert.True(t, p.InSafeArea("/tmp/build-1234"))
	assert.True(t, p.InSafeArea("/tmp"))
	assert.False(t, p.InSafeArea("/tmpfiles/x"))
	assert.False(t, p.InSafeArea("/home/user/file"))
}

func TestPolicy_Confine_RelaxesInsideSafeArea(t *testing.T) {
	p := NewPolicy([]string{"/tmp"}, nil)

	assert.Equal(t, types.SafetyLevelSafe, p.Confine(types.SafetyLevelRisky, "/tmp/junk"))
	assert.Equal(t, types.SafetyLevelRisky, p.Confine(types.SafetyLevelRisky, "/var/cache/apt"))
}

func TestPolicy_ConfineAll_NeedsEveryPathInside(t *testing.T) {
	p := NewPolicy([]string{"/tmp"}, nil)

	inside := []string{"/tmp/a", "/tmp/b"}
	mixed := []string{"/tmp/a", "/home/user/b"}

	assert.Equal(t, types.SafetyLevelSafe, p.ConfineAll(types.SafetyLevelModerate, inside))
	assert.Equal(t, types.SafetyLevelModerate, p.ConfineAll(types.SafetyLevelModerate, mixed))
	assert.Equal(t, types.SafetyLevelModerate, p.ConfineAll(types.SafetyLevelModerate, nil))
}

func TestPolicy_RequiresBackup_OutsideSafeAreasOnly(t *testing.T) {
	p := NewPolicy([]string{"/tmp"}, nil)

	assert.False(t, p.RequiresBackup("/tmp/scratch"))
	assert.True(t, p.RequiresBackup("/home/user/Downloads/big.iso"))
}

func TestPolicy_NilPolicyIsPermissive(t *testing.T) {
	var p *Policy

	assert.True(t, p.Allows("/anywhere"))
	assert.False(t, p.InSafeArea("/anywhere"))
	assert.False(t, p.RequiresBackup("/anywhere"))
	assert.Equal(t, types.SafetyLevelRisky, p.Confine(types.SafetyLevelRisky, "/anywhere"))
	assert.Equal(t, types.SafetyLevelRisky, p.ConfineAll(types.SafetyLevelRisky, []string{"/anywhere"}))
}
