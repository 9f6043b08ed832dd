// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package portselect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/portselect"
)

func TestSpec_Single(t *testing.T) {
	s := portselect.NewSingle(3000)
	for _, prev := range []int{0, 3000, 9999} {
		got, err := s.Next(prev)
		require.NoError(t, err)
		assert.Equal(t, 3000, got)
	}
}

func TestSpec_List(t *testing.T) {
	s := portselect.NewList([]int{3002, 3000, 3001})

	got, err := s.Next(0)
	require.NoError(t, err)
	assert.Equal(t, 3000, got)

	got, err = s.Next(3000)
	require.NoError(t, err)
	assert.Equal(t, 3001, got)

	got, err = s.Next(3001)
	require.NoError(t, err)
	assert.Equal(t, 3002, got)

	_, err = s.Next(3002)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Out of list")
	assert.Contains(t, err.Error(), "3000")
}

func TestSpec_Range(t *testing.T) {
	s := portselect.NewRange(3000, 3001)

	got, err := s.Next(0)
	require.NoError(t, err)
	assert.Equal(t, 3000, got)

	got, err = s.Next(3000)
	require.NoError(t, err)
	assert.Equal(t, 3001, got)

	_, err = s.Next(3001)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Out of range")
	assert.Contains(t, err.Error(), "3000")
	assert.Contains(t, err.Error(), "3001")
}

func TestParse_Single(t *testing.T) {
	s, err := portselect.Parse("3000")
	require.NoError(t, err)
	assert.Equal(t, portselect.Single, s.Kind)
}

func TestParse_List(t *testing.T) {
	s, err := portselect.Parse("3000,3001,3002")
	require.NoError(t, err)
	assert.Equal(t, portselect.List, s.Kind)
	assert.Len(t, s.Ports, 3)
}

func TestParse_Range(t *testing.T) {
	s, err := portselect.Parse("[3000,3001]")
	require.NoError(t, err)
	assert.Equal(t, portselect.Range, s.Kind)
	assert.Equal(t, []int{3000, 3001}, s.Ports)
}
