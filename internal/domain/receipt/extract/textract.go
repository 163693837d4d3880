package extract

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/FACorreiaa/receipt-pipeline/pkg/config"
)

// TextractClient adapts AWS Textract to both analysis contracts: plain text
// detection and structured expense analysis.
type TextractClient struct {
	client *textract.Client
}

var _ TextDetector = (*TextractClient)(nil)
var _ ExpenseAPI = (*TextractClient)(nil)

// NewTextractClient creates a Textract client from configuration.
func NewTextractClient(ctx context.Context, cfg *config.TextractConfig) (*TextractClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("textract region is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &TextractClient{client: textract.NewFromConfig(awsCfg)}, nil
}

// DetectText runs synchronous text detection and joins LINE blocks in
// document order. contentType is accepted for interface parity; Textract
// sniffs the format from the bytes.
func (c *TextractClient) DetectText(ctx context.Context, data []byte, contentType string) (string, error) {
	out, err := c.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("text detection failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		sb.WriteString(*block.Text)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

// AnalyzeExpense runs structured expense analysis and converts the first
// expense document into the neutral shape.
func (c *TextractClient) AnalyzeExpense(ctx context.Context, data []byte) (*ExpenseDocument, error) {
	out, err := c.client.AnalyzeExpense(ctx, &textract.AnalyzeExpenseInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return nil, fmt.Errorf("expense analysis failed: %w", err)
	}

	if len(out.ExpenseDocuments) == 0 {
		return nil, ErrNoExpenseDocument
	}

	doc := out.ExpenseDocuments[0]
	result := &ExpenseDocument{}

	for _, f := range doc.SummaryFields {
		result.SummaryFields = append(result.SummaryFields, SummaryField{
			Type:  expenseFieldType(f),
			Value: expenseFieldValue(f),
		})
	}

	for _, group := range doc.LineItemGroups {
		for _, line := range group.LineItems {
			fields := make([]ItemField, 0, len(line.LineItemExpenseFields))
			for _, f := range line.LineItemExpenseFields {
				fields = append(fields, ItemField{
					Type:  expenseFieldType(f),
					Value: expenseFieldValue(f),
				})
			}
			result.LineItems = append(result.LineItems, fields)
		}
	}

	return result, nil
}

func expenseFieldType(f types.ExpenseField) string {
	if f.Type == nil || f.Type.Text == nil {
		return ""
	}
	return *f.Type.Text
}

func expenseFieldValue(f types.ExpenseField) string {
	if f.ValueDetection == nil || f.ValueDetection.Text == nil {
		return ""
	}
	return *f.ValueDetection.Text
}
