package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigString(t *testing.T) {
	params, err := NewFromConfigString(" expert , bombs=80,,label=a=b, color")
	require.NoError(t, err)
	assert.Equal(t, Params{"expert": "", "bombs": "80", "label": "a=b", "color": ""}, params)
	assert.Equal(t, []string{"color", "expert"}, params.Switches())

	params, err = NewFromConfigString("")
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = NewFromConfigString("bombs=1,bombs=2")
	require.Error(t, err)
	_, err = NewFromConfigString("=3")
	require.Error(t, err)
}

func TestPopParamOr(t *testing.T) {
	params, err := NewFromConfigString("width=30,color,verbose=false,name=x")
	require.NoError(t, err)

	width, err := PopParamOr(params, "width", 9)
	require.NoError(t, err)
	assert.Equal(t, 30, width)

	height, err := PopParamOr(params, "height", 16)
	require.NoError(t, err)
	assert.Equal(t, 16, height)

	color, err := PopParamOr(params, "color", false)
	require.NoError(t, err)
	assert.True(t, color)

	verbose, err := PopParamOr(params, "verbose", true)
	require.NoError(t, err)
	assert.False(t, verbose)

	require.Error(t, params.CheckAllUsed())
	name, err := PopParamOr(params, "name", "")
	require.NoError(t, err)
	assert.Equal(t, "x", name)
	require.NoError(t, params.CheckAllUsed())
}

func TestGetParamOrErrors(t *testing.T) {
	params := Params{"bombs": "many", "width": "", "color": "maybe"}
	_, err := GetParamOr(params, "bombs", 10)
	require.Error(t, err)
	_, err = GetParamOr(params, "width", 10)
	require.Error(t, err)
	_, err = GetParamOr(params, "color", false)
	require.Error(t, err)

	// Failed pops leave the key in place.
	_, err = PopParamOr(params, "bombs", 10)
	require.Error(t, err)
	assert.Contains(t, params, "bombs")
}
