package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// formMediaTypes lists request body media types in preference order.
var formMediaTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/json",
}

// Load reads a standalone object schema (YAML or JSON) from src. Property order
// in the document becomes the issue order.
func Load(ctx context.Context, src Source, opts ...Option) (*Schema, error) {
	doc, err := ReadDocument(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	return Parse(doc, opts...)
}

// LoadFile is Load for a file path.
func LoadFile(path string, opts ...Option) (*Schema, error) {
	return Load(context.Background(), SourceFromFile(path), opts...)
}

// Parse builds a Schema from a standalone schema document.
func Parse(doc Document, opts ...Option) (*Schema, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(doc.raw, &node); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", doc.Location(), err)
	}
	root := documentRoot(&node)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema: %s is not a schema object", doc.Location())
	}

	var tree any
	if err := root.Decode(&tree); err != nil {
		return nil, fmt.Errorf("schema: decode %s: %w", doc.Location(), err)
	}
	raw, err := sonic.ConfigStd.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("schema: encode %s: %w", doc.Location(), err)
	}
	compiled := &openapi3.Schema{}
	if err := compiled.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("schema: load %s: %w", doc.Location(), err)
	}

	name := compiled.Title
	if name == "" {
		name = doc.Location()
	}
	base := []Option{WithName(name), WithFieldOrder(mappingKeys(mappingValue(root, "properties"))...)}
	return New(compiled, append(base, opts...)...)
}

// FromOpenAPI extracts the form request body schema of one operation from an
// OpenAPI 3 document. operation is the operationId, or "method:path" (for
// example "post:/signup") when the operation has none. Form media types are
// preferred over JSON.
func FromOpenAPI(ctx context.Context, doc Document, operation string, opts ...Option) (*Schema, error) {
	if operation == "" {
		return nil, errors.New("schema: operation is required")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc.raw)
	if err != nil {
		return nil, fmt.Errorf("schema: load openapi %s: %w", doc.Location(), err)
	}

	path, method, op := findOperation(spec, operation)
	if op == nil {
		return nil, fmt.Errorf("schema: operation %q not found in %s", operation, doc.Location())
	}
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, fmt.Errorf("schema: operation %q has no request body", operation)
	}

	var (
		mediaType string
		ref       *openapi3.SchemaRef
	)
	for _, candidate := range formMediaTypes {
		if mt, ok := op.RequestBody.Value.Content[candidate]; ok && mt != nil && mt.Schema != nil {
			mediaType, ref = candidate, mt.Schema
			break
		}
	}
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("schema: operation %q has no form request body schema", operation)
	}

	var node yaml.Node
	var order []string
	if err := yaml.Unmarshal(doc.raw, &node); err == nil {
		root := documentRoot(&node)
		body := resolveNode(root, walk(root, "paths", path, strings.ToLower(method), "requestBody"))
		media := resolveNode(root, walk(body, "content", mediaType, "schema"))
		order = mappingKeys(mappingValue(media, "properties"))
	}

	base := []Option{WithName(operation)}
	if len(order) > 0 {
		base = append(base, WithFieldOrder(order...))
	}
	return New(ref.Value, append(base, opts...)...)
}

func findOperation(spec *openapi3.T, operation string) (string, string, *openapi3.Operation) {
	if spec == nil || spec.Paths == nil {
		return "", "", nil
	}
	items := spec.Paths.Map()
	paths := make([]string, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			if op.OperationID == operation || strings.ToLower(method)+":"+path == operation {
				return path, method, op
			}
		}
	}
	return "", "", nil
}

func documentRoot(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return node.Content[0]
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		if node.Content[idx].Value == key {
			return node.Content[idx+1]
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		keys = append(keys, node.Content[idx].Value)
	}
	return keys
}

func walk(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		node = mappingValue(node, key)
	}
	return node
}

// resolveNode follows local $ref pointers ("#/components/...") from node.
func resolveNode(root, node *yaml.Node) *yaml.Node {
	unescape := strings.NewReplacer("~1", "/", "~0", "~")
	for hops := 0; hops < 16 && node != nil; hops++ {
		ref := mappingValue(node, "$ref")
		if ref == nil {
			return node
		}
		if !strings.HasPrefix(ref.Value, "#/") {
			return nil
		}
		node = root
		for _, token := range strings.Split(ref.Value[2:], "/") {
			node = mappingValue(node, unescape.Replace(token))
		}
	}
	return node
}
