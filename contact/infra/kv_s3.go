package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// metadado onde guardamos a expiração lógica (RFC 3339).
const s3ExpiresMeta = "expires-at"

// S3API é o subconjunto do *s3.Client usado pelo S3KV.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Settings struct {
	Region    string
	Endpoint  string // vazio = AWS; ex.: "http://127.0.0.1:9000/" para MinIO
	AccessKey string
	SecretKey string
}

// NewS3Client monta o client a partir das credenciais estáticas (ou da cadeia
// padrão da AWS quando AccessKey está vazio).
func NewS3Client(ctx context.Context, st S3Settings) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(st.Region)}
	if st.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3KV implementa domain.KVStore com um objeto por chave.
//
// S3 não tem TTL por objeto: a expiração vai no metadado expires-at e Get
// trata objetos vencidos como ausentes. A remoção física fica para uma
// lifecycle rule do bucket.
type S3KV struct {
	api    S3API
	bucket string
	prefix string
	now    func() time.Time
}

type S3KVOption func(*S3KV)

func WithObjectPrefix(prefix string) S3KVOption {
	return func(s *S3KV) { s.prefix = strings.TrimLeft(prefix, "/") }
}

func WithS3Clock(now func() time.Time) S3KVOption {
	return func(s *S3KV) { s.now = now }
}

func NewS3KV(api S3API, bucket string, opts ...S3KVOption) *S3KV {
	s := &S3KV{api: api, bucket: bucket, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.KVStore = (*S3KV)(nil)

func (s *S3KV) objectKey(key string) string { return s.prefix + key }

func (s *S3KV) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isS3NotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	if raw, ok := out.Metadata[s3ExpiresMeta]; ok {
		exp, perr := time.Parse(time.RFC3339Nano, raw)
		if perr == nil && !s.now().Before(exp) {
			return "", false, nil
		}
	}

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("s3 read %s: %w", key, err)
	}
	return string(body), true, nil
}

func (s *S3KV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	}
	if ttl > 0 {
		exp := s.now().UTC().Add(ttl)
		in.Metadata = map[string]string{s3ExpiresMeta: exp.Format(time.RFC3339Nano)}
		in.Expires = aws.Time(exp)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
