package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policynav-backend/models"
)

func sampleResponse() *models.ArchivedResponse {
	return &models.ArchivedResponse{
		SessionID:  "sess 1/../x",
		Target:     "process_doc",
		StatusCode: 200,
		Body:       `{"policy_name":"PM Kisan"}`,
		ReceivedAt: time.UnixMilli(1700000000000).UTC(),
	}
}

func TestLocalArchive_RoundTrip(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	resp := sampleResponse()
	storagePath, err := archive.Put(ctx, resp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(storagePath, "sess_1___x/1700000000000_process_doc_"), storagePath)
	assert.Equal(t, storagePath, resp.StoragePath)

	got, err := archive.Get(ctx, storagePath)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
	assert.Equal(t, resp.Body, got.Body)
	assert.Equal(t, 200, got.StatusCode)

	require.NoError(t, archive.Delete(ctx, storagePath))
	_, err = archive.Get(ctx, storagePath)
	assert.ErrorIs(t, err, ErrArchiveNotFound)

	// deleting twice is fine
	assert.NoError(t, archive.Delete(ctx, storagePath))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Archive_RoundTrip(t *testing.T) {
	client := newFakeS3()
	archive := NewS3ArchiveWithClient(client, "bucket", "responses")
	ctx := context.Background()

	storagePath, err := archive.Put(ctx, sampleResponse())
	require.NoError(t, err)
	assert.Contains(t, client.objects, "bucket/responses/"+storagePath)

	got, err := archive.Get(ctx, storagePath)
	require.NoError(t, err)
	assert.Equal(t, "process_doc", got.Target)

	require.NoError(t, archive.Delete(ctx, storagePath))
	_, err = archive.Get(ctx, storagePath)
	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestNewArchive(t *testing.T) {
	a, err := NewArchive(ArchiveConfig{Type: ArchiveTypeNone})
	require.NoError(t, err)
	assert.IsType(t, NopArchive{}, a)

	a, err = NewArchive(ArchiveConfig{Type: ArchiveTypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalArchive{}, a)

	_, err = NewArchive(ArchiveConfig{Type: ArchiveTypeS3})
	assert.Error(t, err)

	_, err = NewArchive(ArchiveConfig{Type: "ftp"})
	assert.Error(t, err)
}
