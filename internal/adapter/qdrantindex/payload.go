package qdrantindex

import (
	"github.com/qdrant/go-client/qdrant"

	"mini-rag/internal/domain"
)

// Payload keys owned by the fixed chunk schema; everything else in a point
// payload is treated as caller-supplied metadata.
const (
	keyText        = "text"
	keyDocumentID  = "document_id"
	keySource      = "source"
	keyTitle       = "title"
	keyChunkIndex  = "chunk_index"
	keyTotalChunks = "total_chunks"
	keyPosition    = "position"
	keyTokenCount  = "token_count"
)

var schemaKeys = map[string]struct{}{
	keyText:        {},
	keyDocumentID:  {},
	keySource:      {},
	keyTitle:       {},
	keyChunkIndex:  {},
	keyTotalChunks: {},
	keyPosition:    {},
	keyTokenCount:  {},
}

// payloadFromRecord flattens a record into the point payload: the fixed
// schema fields plus any caller-supplied extras merged in alongside.
func payloadFromRecord(rec domain.VectorRecord) map[string]any {
	payload := map[string]any{
		keyText:        rec.Text,
		keyDocumentID:  rec.DocumentID,
		keyChunkIndex:  rec.Metadata.ChunkIndex,
		keyTotalChunks: rec.Metadata.TotalChunks,
		keyPosition:    rec.Metadata.Position,
		keyTokenCount:  rec.Metadata.TokenCount,
	}
	if rec.Metadata.Source != "" {
		payload[keySource] = rec.Metadata.Source
	}
	if rec.Metadata.Title != "" {
		payload[keyTitle] = rec.Metadata.Title
	}
	for k, v := range rec.Metadata.Extra {
		if _, reserved := schemaKeys[k]; reserved {
			continue
		}
		payload[k] = v
	}
	return payload
}

// itemFromPayload reverses payloadFromRecord for a scored hit.
func itemFromPayload(score float64, payload map[string]*qdrant.Value) domain.RetrievedItem {
	meta := domain.ChunkMetadata{
		Source:      payloadString(payload, keySource),
		Title:       payloadString(payload, keyTitle),
		ChunkIndex:  payloadInt(payload, keyChunkIndex),
		TotalChunks: payloadInt(payload, keyTotalChunks),
		Position:    payloadInt(payload, keyPosition),
		TokenCount:  payloadInt(payload, keyTokenCount),
	}

	for k, v := range payload {
		if _, reserved := schemaKeys[k]; reserved {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]any)
		}
		meta.Extra[k] = valueToAny(v)
	}

	return domain.RetrievedItem{
		Text:       payloadString(payload, keyText),
		Score:      score,
		DocumentID: payloadString(payload, keyDocumentID),
		Metadata:   meta,
	}
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func payloadInt(payload map[string]*qdrant.Value, key string) int {
	if v, ok := payload[key]; ok {
		return int(v.GetIntegerValue())
	}
	return 0
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, 0, len(values))
		for _, item := range values {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, item := range fields {
			out[k] = valueToAny(item)
		}
		return out
	default:
		return nil
	}
}
