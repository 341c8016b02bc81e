package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBucket struct {
	objects map[string][]byte
	meta    map[string]map[string]string
	fail    error
}

func (m *memoryBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	data, _ := io.ReadAll(in.Body)
	m.objects[awssdk.ToString(in.Key)] = data
	m.meta[awssdk.ToString(in.Key)] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[awssdk.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func TestMirrorFileRoundTrip(t *testing.T) {
	bucket := newMemoryBucket()
	mgr, err := NewMirror(context.Background(), S3Config{}, "ckpts", WithStore(bucket), WithPrefix("/default/linear/"))
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "epoch_10.pth")
	require.NoError(t, os.WriteFile(local, []byte("weights"), 0o600))

	key, err := mgr.MirrorFile(context.Background(), local, map[string]string{"epoch": "10"})
	require.NoError(t, err)
	assert.Equal(t, "default/linear/epoch_10.pth", key)
	assert.Equal(t, "10", bucket.meta[key]["epoch"])

	data, err := mgr.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)
}

func TestUploadFailureIsBlamed(t *testing.T) {
	bucket := newMemoryBucket()
	bucket.fail = errors.New("access denied")
	mgr, err := NewMirror(context.Background(), S3Config{}, "ckpts", WithStore(bucket))
	require.NoError(t, err)

	err = mgr.Put(context.Background(), "a", []byte("x"), "text/plain", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bucket.fail)
	assert.Contains(t, err.Error(), "ckpts")
}

func TestKeyWithoutPrefix(t *testing.T) {
	mgr, err := NewMirror(context.Background(), S3Config{}, "ckpts", WithStore(newMemoryBucket()))
	require.NoError(t, err)
	assert.Equal(t, "epoch_1.pth", mgr.Key("epoch_1.pth"))
	assert.Equal(t, "ckpts", mgr.Bucket())
}
