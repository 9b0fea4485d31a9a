// services/spaces.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/acodelab/backend/acodelab/database/models"
)

// SpacesService archives replaced leaderboard snapshots to a
// DigitalOcean Spaces bucket so history survives the in-database
// overwrite. Objects are keyed by type and period start, so re-archiving
// the same period is an idempotent overwrite.
type SpacesService struct {
	client      *s3.Client
	bucket      string
	region      string
	ArchiveRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, archiveRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	return &SpacesService{
		client:      s3.NewFromConfig(cfg),
		bucket:      bucket,
		region:      region,
		ArchiveRoot: strings.Trim(archiveRoot, "/"),
	}, nil
}

// Archive uploads a snapshot as JSON under
// <root>/<type>/<period_start>.json.
func (s *SpacesService) Archive(ctx context.Context, lb *models.Leaderboard) error {
	body, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", lb.LeaderboardType, err)
	}

	key := fmt.Sprintf("%s/%s/%s.json",
		s.ArchiveRoot,
		lb.LeaderboardType,
		lb.PeriodStart.UTC().Format("2006-01-02"))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
