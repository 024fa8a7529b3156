package filesystem

import (
	"fmt"
	"os"

	"github.com/valisehq/valise/internal/core"
	"gopkg.in/yaml.v3"
)

// OpenCollection reads and decodes the collection file at path.
func OpenCollection(path string) (*core.Collection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var data collectionData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collection: %w", err)
	}

	return fromStorageFormat(&data), nil
}

// SaveCollection encodes the collection and writes it to path.
func SaveCollection(path string, c *core.Collection) error {
	data := toStorageFormat(c)

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}

	return nil
}

// Storage format types

type collectionData struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Variables []keyValueData `yaml:"variables,omitempty"`
	Endpoints []endpointData `yaml:"endpoints,omitempty"`
}

type keyValueData struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value,omitempty"`
	Active bool   `yaml:"active"`
	Secret bool   `yaml:"secret,omitempty"`
}

type endpointData struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Method      string         `yaml:"method"`
	URL         string         `yaml:"url"`
	Headers     []keyValueData `yaml:"headers,omitempty"`
	BodyType    string         `yaml:"body_type,omitempty"`
	BodyContent string         `yaml:"body_content,omitempty"`
}

// Conversion functions

func toStorageFormat(c *core.Collection) *collectionData {
	data := &collectionData{
		ID:   c.ID(),
		Name: c.Name(),
	}

	for _, v := range c.Variables() {
		data.Variables = append(data.Variables, toKeyValueData(*v))
	}

	for _, e := range c.Endpoints() {
		data.Endpoints = append(data.Endpoints, toEndpointData(e))
	}

	return data
}

func toKeyValueData(item core.KeyValueItem) keyValueData {
	return keyValueData{
		Name:   item.Name,
		Value:  item.Value,
		Active: item.Active,
		Secret: item.Secret,
	}
}

func toEndpointData(e *core.Endpoint) endpointData {
	data := endpointData{
		ID:          e.ID(),
		Name:        e.Name(),
		Method:      e.Method(),
		URL:         e.URL(),
		BodyType:    e.BodyType(),
		BodyContent: e.BodyContent(),
	}

	for _, h := range e.Headers() {
		data.Headers = append(data.Headers, toKeyValueData(h))
	}

	return data
}

func fromStorageFormat(data *collectionData) *core.Collection {
	c := core.NewCollectionWithID(data.ID, data.Name)

	for _, vd := range data.Variables {
		c.AddVariable(&core.KeyValueItem{
			Name:   vd.Name,
			Value:  vd.Value,
			Active: vd.Active,
			Secret: vd.Secret,
		})
	}

	for _, ed := range data.Endpoints {
		c.AddEndpoint(fromEndpointData(&ed))
	}

	return c
}

func fromEndpointData(data *endpointData) *core.Endpoint {
	e := core.NewEndpointWithID(data.ID, data.Name, data.Method, data.URL)

	for _, hd := range data.Headers {
		e.AddHeader(core.KeyValueItem{
			Name:   hd.Name,
			Value:  hd.Value,
			Active: hd.Active,
			Secret: hd.Secret,
		})
	}

	if data.BodyContent != "" {
		e.SetBody(data.BodyContent, data.BodyType)
	}

	return e
}
