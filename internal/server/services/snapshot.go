package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/glueauth/internal/merkle"
	sc "github.com/dmitrijs2005/glueauth/internal/server/config"
)

// SnapshotKey is the object key the latest membership snapshot is written to.
const SnapshotKey = "membership/latest.json"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// MembershipSource lists members in merkle index order.
type MembershipSource interface {
	AllCommitments(ctx context.Context) ([]string, error)
}

// Snapshot is the published view of the membership set. Anyone holding it
// can rebuild the group and check the root.
type Snapshot struct {
	Size        int       `json:"size"`
	Root        string    `json:"root"`
	Commitments []string  `json:"commitments"`
	PublishedAt time.Time `json:"publishedAt"`
}

// S3SnapshotPublisher writes membership snapshots to an S3-compatible bucket.
// Publishes are serialized and a snapshot no larger than the last uploaded
// one is skipped, so the object never moves back to an older membership.
type S3SnapshotPublisher struct {
	source MembershipSource
	config *sc.Config
	now    func() time.Time

	mu sync.Mutex
	// size of the last uploaded snapshot, -1 before the first upload
	published int
}

func NewS3SnapshotPublisher(source MembershipSource, cfg *sc.Config) *S3SnapshotPublisher {
	return &S3SnapshotPublisher{source: source, config: cfg, now: time.Now, published: -1}
}

// Enabled reports whether a bucket is configured.
func (p *S3SnapshotPublisher) Enabled() bool {
	return p.config.S3Bucket != ""
}

func (p *S3SnapshotPublisher) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Build reads the membership and assembles a snapshot.
func (p *S3SnapshotPublisher) Build(ctx context.Context) (*Snapshot, error) {
	members, err := p.source.AllCommitments(ctx)
	if err != nil {
		return nil, err
	}
	head := merkle.Head(members)
	return &Snapshot{
		Size:        head.Size,
		Root:        head.RootHex(),
		Commitments: members,
		PublishedAt: p.now().UTC(),
	}, nil
}

// Publish uploads the current snapshot. It is a no-op without a bucket or
// when the membership has not grown since the last upload.
func (p *S3SnapshotPublisher) Publish(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	snap, err := p.Build(ctx)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	if snap.Size <= p.published {
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	bucket := p.config.S3Bucket
	key := SnapshotKey
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	p.published = snap.Size

	return nil
}
