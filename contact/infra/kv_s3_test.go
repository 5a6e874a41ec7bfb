package infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Object struct {
	body string
	meta map[string]string
}

type fakeS3 struct {
	objects map[string]s3Object
	puts    []*s3.PutObjectInput
	getErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string]s3Object)} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(strings.NewReader(obj.body)),
		Metadata: obj.meta,
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = s3Object{body: string(b), meta: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func TestS3KV_PutGet(t *testing.T) {
	api := newFakeS3()
	s := NewS3KV(api, "bucket", WithObjectPrefix("/kv/"))
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", `{"name":"Ada"}`, 0))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "kv/k", aws.ToString(api.puts[0].Key))
	assert.Equal(t, "bucket", aws.ToString(api.puts[0].Bucket))
	assert.Nil(t, api.puts[0].Metadata)

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Ada"}`, v)
}

func TestS3KV_LogicalExpiry(t *testing.T) {
	api := newFakeS3()
	clk := newManualClock()
	s := NewS3KV(api, "bucket", WithS3Clock(clk.Now))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", "1", time.Hour))
	assert.Equal(t, clk.Now().Add(time.Hour), aws.ToTime(api.puts[0].Expires))

	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)

	clk.Advance(time.Hour)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3KV_NotFoundAPIErrorIsMissing(t *testing.T) {
	api := newFakeS3()
	api.getErr = &smithy.GenericAPIError{Code: "NotFound"}
	s := NewS3KV(api, "bucket")

	_, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3KV_OtherErrorsPropagate(t *testing.T) {
	denied := &smithy.GenericAPIError{Code: "AccessDenied"}
	api := newFakeS3()
	api.getErr = denied
	s := NewS3KV(api, "bucket")

	_, _, err := s.Get(context.Background(), "k")
	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "AccessDenied", apiErr.ErrorCode())
}
