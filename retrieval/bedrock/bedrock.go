// Package bedrock implements a Retriever backed by Amazon Bedrock knowledge
// bases. Each expert domain maps to a knowledge base ID; retrieval uses the
// RetrieveAndGenerate API so the result is generated text grounded in the
// retrieved passages rather than raw chunks.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/expertswarm/retrieval"
)

// Options configures the Bedrock retriever.
type Options struct {
	// Region is the AWS region; empty uses the default resolution chain.
	Region string

	// NumberOfResults is the number of passages retrieved per query.
	NumberOfResults int32
}

// Retriever queries Bedrock knowledge bases, one per expert domain.
type Retriever struct {
	client         *bedrockagentruntime.Client
	knowledgeBases map[string]string
	modelARN       string
	opts           Options
}

var _ retrieval.Retriever = (*Retriever)(nil)

// New creates a Bedrock retriever. knowledgeBases maps domain names to
// knowledge base IDs; modelARN names the model used to generate answers from
// retrieved passages. Credentials follow the default AWS resolution chain.
func New(ctx context.Context, knowledgeBases map[string]string, modelARN string, optFns ...func(o *Options)) (*Retriever, error) {
	opts := Options{
		NumberOfResults: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Retriever{
		client:         bedrockagentruntime.NewFromConfig(awsCfg),
		knowledgeBases: knowledgeBases,
		modelARN:       modelARN,
		opts:           opts,
	}, nil
}

// Retrieve implements retrieval.Retriever. Access denials from Bedrock map to
// retrieval.ErrUnauthorized; domains without a knowledge base map to
// retrieval.ErrUnknownDomain.
func (r *Retriever) Retrieve(ctx context.Context, domain, query string) (string, error) {
	kbID, ok := r.knowledgeBases[domain]
	if !ok {
		return "", fmt.Errorf("domain %q: %w", domain, retrieval.ErrUnknownDomain)
	}

	out, err := r.client.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &types.RetrieveAndGenerateInput{
			Text: aws.String(query),
		},
		RetrieveAndGenerateConfiguration: &types.RetrieveAndGenerateConfiguration{
			Type: types.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &types.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(kbID),
				ModelArn:        aws.String(r.modelARN),
				RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
					VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
						NumberOfResults: aws.Int32(r.opts.NumberOfResults),
					},
				},
			},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException" {
			return "", fmt.Errorf("knowledge base %s: %w", kbID, retrieval.ErrUnauthorized)
		}
		return "", fmt.Errorf("retrieve and generate for domain %q: %w", domain, err)
	}

	if out.Output == nil || out.Output.Text == nil {
		return "", nil
	}

	return *out.Output.Text, nil
}
