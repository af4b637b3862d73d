package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/spacesedan/sentimas/internal/models"
)

type OpensearchOptions struct {
	Endpoint string
	Username string
	Password string
	Index    string
	// AWS, when set, signs requests with SigV4 for Amazon OpenSearch Service.
	AWS *aws.Config
}

// Opensearch mirrors analysis records into a search index for ad-hoc queries.
type Opensearch struct {
	Client *opensearch.Client
	index  string
}

func NewOpensearchClient(opts OpensearchOptions) (*Opensearch, error) {
	cfg := opensearch.Config{
		Addresses: []string{opts.Endpoint},
	}
	if opts.AWS != nil {
		cfg.Transport = NewSigV4Transport(opts.AWS.Credentials, v4.NewSigner(), opts.AWS.Region, "es")
	} else {
		cfg.Username = opts.Username
		cfg.Password = opts.Password
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenSearch Client: %w", err)
	}

	index := opts.Index
	if index == "" {
		index = "sentiment-results"
	}
	return &Opensearch{Client: client, index: index}, nil
}

type sigV4Transport struct {
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	region      string
	service     string
	next        http.RoundTripper
}

func NewSigV4Transport(creds aws.CredentialsProvider, signer *v4.Signer, region string, service string) http.RoundTripper {
	return &sigV4Transport{
		credentials: creds,
		signer:      signer,
		region:      region,
		service:     service,
		next:        http.DefaultTransport,
	}
}

func (t *sigV4Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, err
	}

	signedReq := req.Clone(req.Context())
	signedReq.Header.Del("Authorization")

	err = t.signer.SignHTTP(
		req.Context(),
		creds,
		signedReq,
		v4.GetPayloadHash(req.Context()),
		t.service,
		t.region,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	return t.next.RoundTrip(signedReq)
}

func (o *Opensearch) IsHealthy(ctx context.Context) bool {
	res, err := o.Client.Do(ctx, opensearchapi.ClusterHealthReq{}, nil)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	return !res.IsError() && res.StatusCode == http.StatusOK
}

func (o *Opensearch) IndexAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	req := opensearchapi.IndexReq{
		Index:      o.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(payload),
	}

	res, err := o.Client.Do(ctx, req, nil)
	if err != nil {
		slog.Error("[OpenSearchClient] Failed to index analysis",
			slog.String("id", record.ID),
			slog.String("error", err.Error()))
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		slog.Error("[OpenSearchClient] OpenSearch indexing error",
			slog.String("status", res.Status()))
		return fmt.Errorf("opensearch error: %s", res.Status())
	}

	slog.Debug("[OpenSearchClient] Indexed analysis", slog.String("id", record.ID))
	return nil
}
