package chunking

import (
	"strings"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

func tfBlock(kind, label string, bodySize int) string {
	body := strings.Repeat("x", bodySize)
	switch kind {
	case "locals":
		return "locals {\n  filler = \"" + body + "\"\n}"
	case "module":
		return "module \"" + label + "\" {\n  source = \"" + body + "\"\n}"
	default:
		return kind + " \"" + label + "\" \"main\" {\n  value = \"" + body + "\"\n}"
	}
}

func TestScanTerraformBlocks_AllKinds(t *testing.T) {
	src := `
terraform {
  required_version = ">= 1.0"
}

provider "aws" {
  region = "us-east-1"
}

resource "aws_instance" "web" {
  ami = "ami-123"
}

data "aws_ami" "ubuntu" {
  most_recent = true
}

module "vpc" {
  source = "./vpc"
}

variable "name" {
  type = string
}

output "ip" {
  value = aws_instance.web.public_ip
}

locals {
  env = "prod"
}
`
	blocks := scanTerraformBlocks(src)
	if len(blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(blocks))
	}

	wantKinds := []string{"resource", "data", "module", "variable", "output", "locals"}
	for i, want := range wantKinds {
		if blocks[i].kind != want {
			t.Errorf("block %d: expected kind %s, got %s", i, want, blocks[i].kind)
		}
	}

	if blocks[0].resourceType != "aws_instance" {
		t.Errorf("expected resource_type aws_instance, got %s", blocks[0].resourceType)
	}
}

func TestScanTerraformBlocks_NestedBlocks(t *testing.T) {
	src := `
resource "aws_security_group" "sg" {
  ingress {
    from_port = 80
    to_port   = 80
    cidr_blocks = ["0.0.0.0/0"]
  }
  tags = {
    Name = "sg"
  }
}
`
	blocks := scanTerraformBlocks(src)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0].content, "cidr_blocks") {
		t.Error("nested block content missing from extracted block")
	}
	if !strings.HasSuffix(blocks[0].content, "}") {
		t.Errorf("block should end at its closing brace, got %q", blocks[0].content[len(blocks[0].content)-10:])
	}
}

func TestScanTerraformBlocks_BracesInStringsAndComments(t *testing.T) {
	src := `
resource "aws_iam_policy" "p" {
  # a comment with a stray } brace
  // another } one
  policy = "{\"Version\": \"2012-10-17\"}"
}

output "after" {
  value = "still extracted"
}
`
	blocks := scanTerraformBlocks(src)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].kind != "output" {
		t.Errorf("expected second block to be output, got %s", blocks[1].kind)
	}
}

func TestScanTerraformBlocks_NoBlocks(t *testing.T) {
	blocks := scanTerraformBlocks("just some prose about terraform, no blocks here")
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestTerraformStrategy_CombinesSmallBlocks(t *testing.T) {
	// 400 + 900 chars of body fit a single 1200-char chunk once the
	// block wrappers are counted in (each block is body + ~50 chars)
	small := tfBlock("resource", "aws_s3_bucket", 300)
	medium := tfBlock("resource", "aws_instance", 700)

	s := &terraformStrategy{maxSize: terraformMaxChunk}
	pieces, err := s.Split(small + "\n\n" + medium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pieces) != 1 {
		t.Fatalf("expected 1 combined piece, got %d", len(pieces))
	}
	if pieces[0].tags[domain.MetaChunkType] != ChunkTypeTerraformCombined {
		t.Errorf("expected %s, got %v", ChunkTypeTerraformCombined, pieces[0].tags[domain.MetaChunkType])
	}
	if len(pieces[0].content) > terraformMaxChunk {
		t.Errorf("combined chunk exceeds max size: %d", len(pieces[0].content))
	}
	if !strings.Contains(pieces[0].content, "aws_s3_bucket") || !strings.Contains(pieces[0].content, "aws_instance") {
		t.Error("combined chunk missing one of the blocks")
	}
}

func TestTerraformStrategy_OversizedBlockStandsAlone(t *testing.T) {
	big := tfBlock("resource", "aws_launch_template", 2000)

	s := &terraformStrategy{maxSize: terraformMaxChunk}
	pieces, err := s.Split(big)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].tags[domain.MetaChunkType] != ChunkTypeTerraformBlock {
		t.Errorf("expected %s, got %v", ChunkTypeTerraformBlock, pieces[0].tags[domain.MetaChunkType])
	}
	if pieces[0].tags[domain.MetaResourceType] != "aws_launch_template" {
		t.Errorf("expected resource_type tag, got %v", pieces[0].tags[domain.MetaResourceType])
	}
}

func TestTerraformStrategy_OversizedFlushesPendingFirst(t *testing.T) {
	small := tfBlock("variable", "region", 100)
	big := tfBlock("resource", "aws_launch_template", 2000)
	tail := tfBlock("output", "id", 100)

	s := &terraformStrategy{maxSize: terraformMaxChunk}
	pieces, err := s.Split(strings.Join([]string{small, big, tail}, "\n\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}
	wantTypes := []string{ChunkTypeTerraformCombined, ChunkTypeTerraformBlock, ChunkTypeTerraformCombined}
	for i, want := range wantTypes {
		if pieces[i].tags[domain.MetaChunkType] != want {
			t.Errorf("piece %d: expected %s, got %v", i, want, pieces[i].tags[domain.MetaChunkType])
		}
	}
}

func TestTerraformStrategy_NoContentLoss(t *testing.T) {
	var blocks []string
	for i := 0; i < 7; i++ {
		blocks = append(blocks, tfBlock("resource", "aws_subnet", 300+i*100))
	}
	src := strings.Join(blocks, "\n\n")

	s := &terraformStrategy{maxSize: terraformMaxChunk}
	pieces, err := s.Split(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var joined strings.Builder
	for _, p := range pieces {
		joined.WriteString(p.content)
		joined.WriteString("\n\n")
	}
	for _, b := range blocks {
		if !strings.Contains(joined.String(), b) {
			t.Fatal("a source block is missing from the chunk output")
		}
	}
}

func TestTerraformStrategy_SizeBoundOnCombined(t *testing.T) {
	var blocks []string
	for i := 0; i < 20; i++ {
		blocks = append(blocks, tfBlock("resource", "aws_route", 150+i*37))
	}

	s := &terraformStrategy{maxSize: terraformMaxChunk}
	pieces, err := s.Split(strings.Join(blocks, "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, p := range pieces {
		if p.tags[domain.MetaChunkType] == ChunkTypeTerraformCombined && len(p.content) > terraformMaxChunk {
			t.Errorf("piece %d: combined chunk of %d chars exceeds %d", i, len(p.content), terraformMaxChunk)
		}
	}
}
