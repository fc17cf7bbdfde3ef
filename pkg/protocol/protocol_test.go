package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameStream(t *testing.T) {
	var buf bytes.Buffer
	first, err := NewRequest(MethodLoadModel, ModelParams{ModelID: "m1"})
	require.NoError(t, err)
	require.NoError(t, WriteFrame(&buf, first))
	require.NoError(t, WriteFrame(&buf, Event{ID: first.ID, Kind: KindResult, Payload: true}))

	var got Request
	require.NoError(t, ReadFrame(&buf, &got))
	assert.Equal(t, MethodLoadModel, got.Method)
	p, err := DecodeParams[ModelParams](&got)
	require.NoError(t, err)
	assert.Equal(t, "m1", p.ModelID)

	var ev Event
	require.NoError(t, ReadFrame(&buf, &ev))
	assert.Equal(t, KindResult, ev.Kind)
	assert.Equal(t, true, ev.Payload)

	assert.ErrorIs(t, ReadFrame(&buf, &ev), io.EOF)
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, map[string]string{"a": "b"}))
	short := bytes.NewReader(buf.Bytes()[:buf.Len()-2])

	var v map[string]string
	assert.ErrorIs(t, ReadFrame(short, &v), io.ErrUnexpectedEOF)
}

func TestReadFrameTooLarge(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrameSize+1)
	var v any
	assert.ErrorIs(t, ReadFrame(bytes.NewReader(hdr[:]), &v), ErrFrameTooLarge)
}

func TestDecodeParamsEmpty(t *testing.T) {
	p, err := DecodeParams[PromptParams](&Request{Method: MethodGenerateText})
	require.NoError(t, err)
	assert.Empty(t, p.Prompt)

	_, err = DecodeParams[PromptParams](&Request{Params: []byte(`{"prompt":`)})
	assert.Error(t, err)
}

func TestMethodClassification(t *testing.T) {
	assert.False(t, MethodShowToast.Async())
	assert.False(t, MethodGetAIStatus.Async())
	assert.True(t, MethodDownloadModel.Async())
	assert.True(t, MethodGenerateStudyNotes.Async())
	assert.True(t, MethodUploadContent.Async())
	assert.True(t, MethodGetCourse.Async())
	assert.False(t, Method("exec").Known())

	seen := map[Method]bool{}
	for _, m := range Methods() {
		assert.True(t, m.Known())
		seen[m] = true
	}
	assert.Len(t, seen, 38)
}

func TestEventKindFinal(t *testing.T) {
	assert.True(t, KindResult.Final())
	assert.True(t, KindComplete.Final())
	assert.True(t, KindError.Final())
	assert.False(t, KindProgress.Final())
	assert.False(t, KindToken.Final())
}
