package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_UnknownCommandReturnsNonZero(t *testing.T) {
	require.NotEqual(t, 0, run([]string{"bogus"}))
}

func TestRun_NoArgsReturnsNonZero(t *testing.T) {
	require.NotEqual(t, 0, run(nil))
}

func TestRun_VersionReturnsZero(t *testing.T) {
	require.Equal(t, 0, run([]string{"version"}))
}

func TestRun_WorkRejectsInvalidTaskID(t *testing.T) {
	require.Equal(t, 2, run([]string{"work", "not-a-valid-id!"}))
}

func TestRun_StatusOnEmptyScratchDirListsNothing(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, 0, run([]string{"status", "--scratch", dir}))
}
