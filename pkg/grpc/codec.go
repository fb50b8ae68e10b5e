package grpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	unmarshalOptions = protojson.UnmarshalOptions{
		AllowPartial:   true,
		DiscardUnknown: true,
	}
	marshalOptions = protojson.MarshalOptions{
		UseProtoNames:  true,
		UseEnumNumbers: true,
	}
)

// NewMessage builds a dynamic message of the given descriptor from a plain
// map. Keys are proto field names; nested maps and slices populate message,
// Struct and repeated fields. A nil map yields an empty message.
func NewMessage(desc protoreflect.MessageDescriptor, fields map[string]any) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(desc)
	if len(fields) == 0 {
		return msg, nil
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s fields: %w", desc.FullName(), err)
	}
	if err := unmarshalOptions.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("build %s: %w", desc.FullName(), err)
	}
	return msg, nil
}

// NewRequest builds the input message of md from fields.
func NewRequest(md protoreflect.MethodDescriptor, fields map[string]any) (*dynamicpb.Message, error) {
	return NewMessage(md.Input(), fields)
}

// NewReply builds the output message of md from fields.
func NewReply(md protoreflect.MethodDescriptor, fields map[string]any) (*dynamicpb.Message, error) {
	return NewMessage(md.Output(), fields)
}

// Decode converts a response message into dst (usually a pointer to a struct
// with json tags matching proto field names). Enums decode as numbers and
// 64-bit integers as strings, following the protobuf JSON mapping.
func Decode(msg proto.Message, dst any) error {
	if msg == nil {
		return fmt.Errorf("decode: nil message")
	}
	body, err := marshalOptions.Marshal(msg)
	if err != nil {
		return fmt.Errorf("decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	return nil
}

// ToMap converts a message into a plain map using proto field names.
func ToMap(msg proto.Message) (map[string]any, error) {
	var out map[string]any
	if err := Decode(msg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewStruct converts a plain map into a google.protobuf.Struct.
func NewStruct(m map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(m)
}

// StructsFromMaps validates that every map can be represented as a
// google.protobuf.Struct and returns them as a JSON-ready slice. Use it for
// repeated Struct fields such as trigger inputs.
func StructsFromMaps(ms []map[string]any) ([]any, error) {
	out := make([]any, 0, len(ms))
	for i, m := range ms {
		s, err := structpb.NewStruct(m)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out = append(out, s.AsMap())
	}
	return out, nil
}

// FieldMask renders snake_case field paths in the JSON form expected for a
// google.protobuf.FieldMask ("displayName,description").
func FieldMask(paths ...string) string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		segments := strings.Split(p, ".")
		for i, s := range segments {
			segments[i] = lowerCamel(s)
		}
		out = append(out, strings.Join(segments, "."))
	}
	return strings.Join(out, ",")
}

func lowerCamel(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		b.WriteRune(r)
	}
	return b.String()
}
