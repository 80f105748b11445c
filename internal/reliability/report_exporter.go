// Package reliability holds the out-of-band operational services; currently
// the S3 report archiver.
package reliability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/Soham1117/StockApp/internal/modules/backtest"
)

// ReportExporter archives finished backtest reports to S3 so long-horizon
// runs can be compared later without rerunning them. Export is fire and
// forget: an archive failure never affects the API response.
type ReportExporter struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewReportExporter builds an exporter for the given bucket. Returns an error
// when AWS configuration cannot be resolved.
func NewReportExporter(ctx context.Context, bucket, prefix string, log zerolog.Logger) (*ReportExporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &ReportExporter{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "report_exporter").Logger(),
	}, nil
}

// Export uploads a report asynchronously.
func (e *ReportExporter) Export(report *backtest.Report) {
	go e.upload(report)
}

func (e *ReportExporter) upload(report *backtest.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	body, err := json.Marshal(report)
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to encode report for export")
		return
	}

	key := fmt.Sprintf("%s/%s/%s/%s.json",
		e.prefix,
		report.Sector,
		time.Now().UTC().Format("2006/01/02"),
		report.RequestID,
	)

	_, err = e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		e.log.Error().Err(err).Str("key", key).Msg("Failed to export report")
		return
	}

	e.log.Info().Str("key", key).Int("bytes", len(body)).Msg("Exported backtest report")
}
