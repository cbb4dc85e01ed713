package lyrics

import "testing"

func TestDecodeSortsSegments(t *testing.T) {
	segments := []byte(`[
		{"id":1,"startTime":4.0,"endTime":6.0,"text":"second"},
		{"id":0,"startTime":1.0,"endTime":3.0,"text":"first",
		 "words":[{"word":"b","startTime":2.0,"endTime":3.0},{"word":"a","startTime":1.0,"endTime":2.0}]}
	]`)

	doc, err := Decode("first\nsecond", nil, segments)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(doc.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(doc.Segments))
	}
	if doc.Segments[0].Text != "first" || doc.Segments[1].Text != "second" {
		t.Errorf("segments not sorted by start time: %q, %q", doc.Segments[0].Text, doc.Segments[1].Text)
	}
	if doc.Segments[0].Words[0].Word != "a" {
		t.Errorf("words not sorted inside segment: got %q first", doc.Segments[0].Words[0].Word)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	if _, err := Decode("text", []byte(`{not json`), nil); err == nil {
		t.Error("Decode accepted malformed words payload")
	}
	if _, err := Decode("text", nil, []byte(`[{"startTime":`)); err == nil {
		t.Error("Decode accepted malformed segments payload")
	}
}

func TestDecodeEmptyPayloads(t *testing.T) {
	doc, err := Decode("just text", nil, nil)
	if err != nil {
		t.Fatalf("Decode failed on empty payloads: %v", err)
	}
	if doc.Text != "just text" || len(doc.Segments) != 0 {
		t.Errorf("doc = %+v, want text only", doc)
	}
}
