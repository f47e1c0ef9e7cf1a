package selection_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
	"sentiscope/internal/selection"
	"sentiscope/mocks"
)

func shots(n int) []domain.FileCandidate {
	out := make([]domain.FileCandidate, n)
	for i := range out {
		out[i] = domain.FileCandidate{Name: fmt.Sprintf("shot-%d.png", i), Size: int64(i + 1), MimeType: domain.MimePNG}
	}
	return out
}

func TestStore_AddAcceptedPreservesOrder(t *testing.T) {
	s := selection.NewStore(domain.SelectionModeMulti, nil)
	files := shots(3)

	s.AddAccepted(context.Background(), files[:2])
	s.AddAccepted(context.Background(), files[2:])

	assert.Equal(t, files, s.Files())
	assert.Equal(t, 3, s.Len())
}

func TestStore_AddAcceptedEmptyIsNoop(t *testing.T) {
	previews := new(mocks.MockPreviewProvider)
	s := selection.NewStore(domain.SelectionModeMulti, previews)

	s.AddAccepted(context.Background(), nil)

	assert.Equal(t, 0, s.Len())
	previews.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
}

func TestStore_RemoveAtShiftsDown(t *testing.T) {
	s := selection.NewStore(domain.SelectionModeMulti, nil)
	files := shots(4)
	s.AddAccepted(context.Background(), files)

	require.NoError(t, s.RemoveAt(context.Background(), 1))

	assert.Equal(t, []domain.FileCandidate{files[0], files[2], files[3]}, s.Files())
}

func TestStore_RemoveAtOutOfRange(t *testing.T) {
	s := selection.NewStore(domain.SelectionModeMulti, nil)
	s.AddAccepted(context.Background(), shots(2))

	for _, idx := range []int{-1, 2, 99} {
		err := s.RemoveAt(context.Background(), idx)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	}
	assert.Equal(t, 2, s.Len())
}

func TestStore_RemoveEveryIndexEmpties(t *testing.T) {
	orders := map[string]func(n int) []int{
		"end to start": func(n int) []int {
			out := make([]int, 0, n)
			for i := n - 1; i >= 0; i-- {
				out = append(out, i)
			}
			return out
		},
		"always first": func(n int) []int { return make([]int, n) },
		"middle out": func(n int) []int {
			out := make([]int, 0, n)
			for remaining := n; remaining > 0; remaining-- {
				out = append(out, remaining/2)
			}
			return out
		},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			s := selection.NewStore(domain.SelectionModeMulti, nil)
			s.AddAccepted(context.Background(), shots(7))
			for _, idx := range order(7) {
				require.NoError(t, s.RemoveAt(context.Background(), idx))
			}
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestStore_PreviewsReleasedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	previews := new(mocks.MockPreviewProvider)
	files := shots(3)
	handles := make([]*port.Preview, len(files))
	for i, f := range files {
		handles[i] = &port.Preview{Key: fmt.Sprintf("k%d", i), URL: fmt.Sprintf("http://p/%d", i)}
		previews.On("Acquire", mock.Anything, f).Return(handles[i], nil).Once()
		previews.On("Release", mock.Anything, handles[i]).Return(nil).Once()
	}

	s := selection.NewStore(domain.SelectionModeMulti, previews)
	s.AddAccepted(ctx, files)
	require.NoError(t, s.RemoveAt(ctx, 1))
	s.Clear(ctx)
	s.Clear(ctx)

	assert.Equal(t, 0, s.Len())
	previews.AssertExpectations(t)
	previews.AssertNumberOfCalls(t, "Release", 3)
}

func TestStore_PreviewAcquireFailureKeepsFile(t *testing.T) {
	previews := new(mocks.MockPreviewProvider)
	f := shots(1)[0]
	previews.On("Acquire", mock.Anything, f).Return(nil, errors.New("bucket down"))

	s := selection.NewStore(domain.SelectionModeMulti, previews)
	s.AddAccepted(context.Background(), []domain.FileCandidate{f})
	require.NoError(t, s.RemoveAt(context.Background(), 0))

	previews.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestStore_ReplaceAllSingleMode(t *testing.T) {
	ctx := context.Background()
	previews := new(mocks.MockPreviewProvider)
	files := shots(2)
	first := &port.Preview{Key: "first"}
	second := &port.Preview{Key: "second"}
	previews.On("Acquire", mock.Anything, files[0]).Return(first, nil)
	previews.On("Acquire", mock.Anything, files[1]).Return(second, nil)
	previews.On("Release", mock.Anything, first).Return(nil).Once()

	s := selection.NewStore(domain.SelectionModeSingle, previews)
	require.NoError(t, s.ReplaceAll(ctx, files[0]))
	require.NoError(t, s.ReplaceAll(ctx, files[1]))

	assert.Equal(t, []domain.FileCandidate{files[1]}, s.Files())
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, second, s.Entries()[0].Preview)
	previews.AssertExpectations(t)
}

func TestStore_ReplaceAllRejectedInMultiMode(t *testing.T) {
	s := selection.NewStore(domain.SelectionModeMulti, nil)

	err := s.ReplaceAll(context.Background(), shots(1)[0])

	assert.ErrorIs(t, err, domain.ErrSingleModeOnly)
	assert.Equal(t, 0, s.Len())
}

func TestStore_FilesReturnsCopy(t *testing.T) {
	s := selection.NewStore(domain.SelectionModeMulti, nil)
	s.AddAccepted(context.Background(), shots(2))

	files := s.Files()
	files[0].Name = "mutated"

	assert.Equal(t, "shot-0.png", s.Files()[0].Name)
}

func TestStore_AcquireDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	previews := new(mocks.MockPreviewProvider)
	f := shots(1)[0]
	handle := &port.Preview{Key: "k0"}
	previews.On("Acquire", mock.Anything, f).Return(handle, nil).Once()

	s := selection.NewStore(domain.SelectionModeMulti, previews)
	entries := s.Acquire(ctx, []domain.FileCandidate{f})

	require.Len(t, entries, 1)
	assert.Equal(t, handle, entries[0].Preview)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Append(ctx, entries))
	assert.Equal(t, []domain.FileCandidate{f}, s.Files())
	previews.AssertExpectations(t)
}

func TestStore_ClosedRefusesCommitsAndReleases(t *testing.T) {
	ctx := context.Background()
	previews := new(mocks.MockPreviewProvider)
	files := shots(2)
	held := &port.Preview{Key: "held"}
	late := &port.Preview{Key: "late"}
	previews.On("Acquire", mock.Anything, files[0]).Return(held, nil).Once()
	previews.On("Acquire", mock.Anything, files[1]).Return(late, nil).Once()
	previews.On("Release", mock.Anything, held).Return(nil).Once()
	previews.On("Release", mock.Anything, late).Return(nil).Once()

	s := selection.NewStore(domain.SelectionModeMulti, previews)
	require.NoError(t, s.AddAccepted(ctx, files[:1]))
	pending := s.Acquire(ctx, files[1:])

	s.Close(ctx)
	s.Close(ctx)

	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Append(ctx, pending), domain.ErrSessionClosed)
	assert.Equal(t, 0, s.Len())
	previews.AssertExpectations(t)
}

func TestStore_SwapReturnsDisplaced(t *testing.T) {
	ctx := context.Background()
	files := shots(2)
	s := selection.NewStore(domain.SelectionModeSingle, nil)

	old, err := s.Swap(ctx, selection.Entry{File: files[0]})
	require.NoError(t, err)
	assert.Empty(t, old)

	old, err = s.Swap(ctx, selection.Entry{File: files[1]})
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, files[0], old[0].File)
	assert.Equal(t, []domain.FileCandidate{files[1]}, s.Files())

	s.Close(ctx)
	_, err = s.Swap(ctx, selection.Entry{File: files[0]})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestStore_TakeLeavesPreviewToCaller(t *testing.T) {
	previews := new(mocks.MockPreviewProvider)
	f := shots(1)[0]
	previews.On("Acquire", mock.Anything, f).Return(&port.Preview{Key: "k"}, nil)

	s := selection.NewStore(domain.SelectionModeMulti, previews)
	require.NoError(t, s.AddAccepted(context.Background(), []domain.FileCandidate{f}))

	e, err := s.Take(0)
	require.NoError(t, err)
	assert.Equal(t, "k", e.Preview.Key)
	_, err = s.Take(0)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	previews.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}
