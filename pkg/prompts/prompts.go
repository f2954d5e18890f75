package prompts

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

type Prompts struct {
	System   SystemPrompts   `yaml:"system"`
	Script   ScriptPrompts   `yaml:"script"`
	Repair   RepairPrompts   `yaml:"repair"`
	Metadata MetadataPrompts `yaml:"metadata"`
	Image    ImagePrompts    `yaml:"image"`
}

type SystemPrompts struct {
	Story    string `yaml:"story"`
	Dialogue string `yaml:"dialogue"`
	Metadata string `yaml:"metadata"`
	Repair   string `yaml:"repair"`
}

type ScriptPrompts struct {
	Story    string `yaml:"story"`
	Dialogue string `yaml:"dialogue"`
}

type RepairPrompts struct {
	Array  string `yaml:"array"`
	Object string `yaml:"object"`
}

type MetadataPrompts struct {
	Generate string `yaml:"generate"`
}

type ImagePrompts struct {
	Background string `yaml:"background"`
	Thumbnail  string `yaml:"thumbnail"`
}

type StoryParams struct {
	Topic    string
	MinWords int
	MaxWords int
}

type DialogueParams struct {
	Topic         string
	MinWords      int
	MaxWords      int
	FirstSpeaker  string
	SecondSpeaker string
}

type RepairParams struct {
	Raw string
}

type MetadataParams struct {
	Topic string
}

type ImageParams struct {
	Context string
	Format  string
}

func Load() (*Prompts, error) {
	return LoadFrom(defaultPromptsPath)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return &p, nil
}

func (p *Prompts) RenderStory(params StoryParams) (string, error) {
	return render(p.Script.Story, params)
}

func (p *Prompts) RenderDialogue(params DialogueParams) (string, error) {
	return render(p.Script.Dialogue, params)
}

func (p *Prompts) RenderArrayRepair(params RepairParams) (string, error) {
	return render(p.Repair.Array, params)
}

func (p *Prompts) RenderObjectRepair(params RepairParams) (string, error) {
	return render(p.Repair.Object, params)
}

func (p *Prompts) RenderMetadata(params MetadataParams) (string, error) {
	return render(p.Metadata.Generate, params)
}

func (p *Prompts) RenderBackground(params ImageParams) (string, error) {
	return render(p.Image.Background, params)
}

func (p *Prompts) RenderThumbnail(params ImageParams) (string, error) {
	return render(p.Image.Thumbnail, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
