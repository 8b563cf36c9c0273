package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fmueller/voxclone/internal/cli"
	"github.com/fmueller/voxclone/internal/inference"
	"github.com/stretchr/testify/require"
)

func TestShouldPrintUsageHint(t *testing.T) {
	t.Parallel()

	require.True(t, shouldPrintUsageHint(errors.New("unknown command \"bad\" for \"voxclone\"")))
	require.True(t, shouldPrintUsageHint(errors.New("unknown flag: --oops")))
	require.True(t, shouldPrintUsageHint(errors.New("accepts 1 arg(s), received 0")))
	require.False(t, shouldPrintUsageHint(errors.New("inference request failed: context deadline exceeded")))
	require.False(t, shouldPrintUsageHint(nil))
}

func TestShouldPrintArtistHint(t *testing.T) {
	t.Parallel()

	require.True(t, shouldPrintArtistHint(fmt.Errorf("wrapped: %w", inference.ErrMissingModel)))
	require.True(t, shouldPrintArtistHint(errors.New(`unknown artist "nobody" (known artists: kanye)`)))
	require.False(t, shouldPrintArtistHint(inference.ErrConversionFailed))
	require.False(t, shouldPrintArtistHint(nil))
}

func TestHelpHintTarget(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd()
	require.Equal(t, "voxclone", helpHintTarget(root, []string{"--badflag"}))
	require.Equal(t, "voxclone", helpHintTarget(root, []string{"badcmd"}))
	require.Equal(t, "voxclone convert", helpHintTarget(root, []string{"convert"}))
	require.Equal(t, "voxclone convert", helpHintTarget(root, []string{"convert", "--play"}))
}
