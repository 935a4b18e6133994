package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-user-admin/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointers(t *testing.T) {
	require.Equal(t, 30, *utils.Ptr(30))
	require.Nil(t, utils.NonZeroPtr(0))
	require.Equal(t, 4200.0, *utils.NonZeroPtr(4200.0))
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "go", utils.Value(utils.Ptr("go")))
}
