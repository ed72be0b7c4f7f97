package domain

// SourceType identifies how a document source is loaded.
type SourceType string

const (
	SourceTypeWeb            SourceType = "web"
	SourceTypePDF            SourceType = "pdf"
	SourceTypeGitHub         SourceType = "github"
	SourceTypeGitHubCodebase SourceType = "github_codebase"
	SourceTypeConfluence     SourceType = "confluence"
	SourceTypeCSV            SourceType = "csv"
)

// Category classifies a document for chunking-strategy selection.
// Unknown categories fall back to CategoryGeneric.
type Category string

const (
	CategoryTerraform Category = "terraform"
	CategoryAWSDocs   Category = "aws-docs"
	CategoryPricing   Category = "pricing"
	CategoryAPIDocs   Category = "api-docs"
	CategoryTutorials Category = "tutorials"
	CategoryCSV       Category = "csv"
	CategoryCode      Category = "code"
	CategoryGeneric   Category = "generic"
)

// Metadata keys used across the pipeline.
const (
	MetaDocumentCategory = "document_category"
	MetaSourceType       = "source_type"
	MetaSourcePath       = "source_path"
	MetaChunkType        = "chunk_type"
	MetaBlockType        = "block_type"
	MetaResourceType     = "resource_type"
	MetaServiceName      = "service_name"

	// MetaText is the reserved metadata field carrying the chunk's own
	// content in a vector record, so the index is self-describing.
	MetaText = "text"
)

// DocumentSource describes one source to ingest. It is created by the
// caller, consumed once by a run, and removed from the pending list on
// success.
type DocumentSource struct {
	SourceType SourceType     `json:"source_type"`
	SourcePath string         `json:"source_path"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Category returns the document category carried in the source metadata,
// or empty if none is set.
func (s *DocumentSource) Category() Category {
	if s.Metadata == nil {
		return ""
	}
	if c, ok := s.Metadata[MetaDocumentCategory].(string); ok {
		return Category(c)
	}
	return ""
}

// Document is the unit produced by a loader: raw content plus the
// source metadata it was loaded with.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunk is a retrieval-sized slice of a document. Its metadata is the
// document metadata merged with a chunk_type tag and optional sub-tags.
type Chunk struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MergeMetadata returns a new map containing base with extra merged on
// top. Neither input is modified; extra wins on key collisions.
func MergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// NewWebSource creates a web page source with a document category tag.
func NewWebSource(url string, category Category) *DocumentSource {
	return &DocumentSource{
		SourceType: SourceTypeWeb,
		SourcePath: url,
		Metadata: map[string]any{
			MetaSourceType:       string(SourceTypeWeb),
			MetaSourcePath:       url,
			MetaDocumentCategory: string(category),
		},
	}
}

// NewPDFSource creates a PDF file source.
func NewPDFSource(path string, category Category) *DocumentSource {
	return &DocumentSource{
		SourceType: SourceTypePDF,
		SourcePath: path,
		Metadata: map[string]any{
			MetaSourceType:       string(SourceTypePDF),
			MetaSourcePath:       path,
			MetaDocumentCategory: string(category),
		},
	}
}

// NewCSVSource creates a CSV file source.
func NewCSVSource(path string) *DocumentSource {
	return &DocumentSource{
		SourceType: SourceTypeCSV,
		SourcePath: path,
		Metadata: map[string]any{
			MetaSourceType: string(SourceTypeCSV),
			MetaSourcePath: path,
		},
	}
}

// NewGitHubCodebaseSource creates a source over a GitHub source tree.
// Extensions filters files by suffix; maxFileSize is in bytes.
func NewGitHubCodebaseSource(repo, accessToken string, extensions []string, maxFileSize int) *DocumentSource {
	md := map[string]any{
		MetaSourceType: string(SourceTypeGitHubCodebase),
		MetaSourcePath: repo,
	}
	if accessToken != "" {
		md["access_token"] = accessToken
	}
	if len(extensions) > 0 {
		md["file_extensions"] = extensions
	}
	if maxFileSize > 0 {
		md["max_file_size"] = maxFileSize
	}
	return &DocumentSource{
		SourceType: SourceTypeGitHubCodebase,
		SourcePath: repo,
		Metadata:   md,
	}
}

// NewConfluenceSource creates a wiki source.
func NewConfluenceSource(url, username, apiKey string, pageIDs []string, spaceKey string) *DocumentSource {
	md := map[string]any{
		MetaSourceType: string(SourceTypeConfluence),
		MetaSourcePath: url,
		"username":     username,
		"api_key":      apiKey,
	}
	if len(pageIDs) > 0 {
		md["page_ids"] = pageIDs
	}
	if spaceKey != "" {
		md["space_key"] = spaceKey
	}
	return &DocumentSource{
		SourceType: SourceTypeConfluence,
		SourcePath: url,
		Metadata:   md,
	}
}

// AWSDocumentationSources returns the predefined AWS documentation set.
func AWSDocumentationSources() []*DocumentSource {
	return []*DocumentSource{
		NewWebSource("https://docs.aws.amazon.com/ec2/latest/userguide/concepts.html", CategoryAWSDocs),
		NewWebSource("https://docs.aws.amazon.com/s3/latest/userguide/Welcome.html", CategoryAWSDocs),
		NewWebSource("https://docs.aws.amazon.com/lambda/latest/dg/welcome.html", CategoryAWSDocs),
		NewWebSource("https://docs.aws.amazon.com/vpc/latest/userguide/what-is-amazon-vpc.html", CategoryAWSDocs),
		NewWebSource("https://aws.amazon.com/ec2/pricing/on-demand/", CategoryPricing),
		NewWebSource("https://aws.amazon.com/s3/pricing/", CategoryPricing),
	}
}

// TerraformDocumentationSources returns the predefined Terraform
// documentation set.
func TerraformDocumentationSources() []*DocumentSource {
	return []*DocumentSource{
		NewWebSource("https://registry.terraform.io/providers/hashicorp/aws/latest/docs", CategoryTerraform),
		NewWebSource("https://developer.hashicorp.com/terraform/tutorials/aws-get-started", CategoryTutorials),
		NewWebSource("https://developer.hashicorp.com/terraform/language", CategoryTerraform),
	}
}
