package s3

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replayd/replayd/pkg/recording"
)

// fakeClient is an in-memory stand-in for the S3 API surface the store uses.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (f *fakeClient) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeClient) GetObject(_ context.Context, params *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeClient) ListObjectsV2(_ context.Context, params *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := aws.ToString(params.Prefix)
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	contents := make([]types.Object, 0, len(keys))
	for _, key := range keys {
		contents = append(contents, types.Object{Key: aws.String(key)})
	}
	return &awss3.ListObjectsV2Output{Contents: contents, IsTruncated: aws.Bool(false)}, nil
}

func (f *fakeClient) DeleteObjects(_ context.Context, params *awss3.DeleteObjectsInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, obj := range params.Delete.Objects {
		delete(f.objects, aws.ToString(obj.Key))
	}
	return &awss3.DeleteObjectsOutput{}, nil
}

func interactionFor(path string) recording.Interaction {
	return recording.NewInteraction(
		recording.Request{Method: "GET", URI: path, Headers: map[string][]string{}, Body: []byte{}},
		recording.Response{Status: 200, Headers: map[string][]string{}, Body: []byte("ok")},
	)
}

func TestObjectKeyLayout(t *testing.T) {
	s, err := New(newFakeClient(), "fixtures", "recordings")
	require.NoError(t, err)

	assert.Equal(t, "recordings/s1/", s.SessionPrefix("s1"))
	assert.Equal(t, "recordings/s1/abc.json", s.ObjectKey("s1", "abc"))

	noPrefix, err := New(newFakeClient(), "fixtures", "")
	require.NoError(t, err)
	assert.Equal(t, "s1/abc.json", noPrefix.ObjectKey("s1", "abc"))
}

func TestSaveAndList(t *testing.T) {
	client := newFakeClient()
	s, err := New(client, "fixtures", "rec")
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))
	require.NoError(t, s.Save(ctx, "s1", interactionFor("/b")))
	require.NoError(t, s.Save(ctx, "s2", interactionFor("/other")))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t,
		[]string{"/a", "/b"},
		[]string{got[0].Request.URI, got[1].Request.URI})
}

func TestListSkipsMalformedObjects(t *testing.T) {
	client := newFakeClient()
	s, err := New(client, "fixtures", "")
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))
	client.objects["s1/garbage.json"] = []byte("{not json")
	client.objects["s1/readme.txt"] = []byte("ignored extension")

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Request.URI)
}

func TestClear(t *testing.T) {
	client := newFakeClient()
	s, err := New(client, "fixtures", "")
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))
	require.NoError(t, s.Save(ctx, "keep", interactionFor("/kept")))

	require.NoError(t, s.Clear(ctx, "s1"))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	kept, err := s.List(ctx, "keep")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	// Clearing an unknown session is a no-op.
	require.NoError(t, s.Clear(ctx, "missing"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, "bucket", "")
	assert.Error(t, err)

	_, err = New(newFakeClient(), "", "")
	assert.Error(t, err)
}
