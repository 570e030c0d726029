package quant

import "testing"

func TestEncodeScalar8RoundTrip(t *testing.T) {
	vector := []float32{-1.0, 0.0, 0.5, 2.0}
	enc := EncodeScalar8(vector)
	if len(enc.Code) != len(vector) {
		t.Fatalf("expected code length %d, got %d", len(vector), len(enc.Code))
	}
	decoded := enc.Decode()
	for i, v := range vector {
		err := decoded[i] - v
		if err < 0 {
			err = -err
		}
		maxErr := enc.Scale/2 + 1e-3
		if err > maxErr {
			t.Fatalf("component %d: dequantization error %f exceeds scale/2 bound %f", i, err, maxErr)
		}
	}
}

func TestEncodeScalar8ConstantVector(t *testing.T) {
	vector := []float32{3.0, 3.0, 3.0}
	enc := EncodeScalar8(vector)
	decoded := enc.Decode()
	for i, v := range decoded {
		if v != 3.0 {
			t.Fatalf("constant vector component %d: expected 3.0, got %f", i, v)
		}
	}
}

func TestScalar8StorePutGet(t *testing.T) {
	store := NewScalar8Store()
	store.Put(5, []float32{1, 2, 3, 4})
	enc, ok := store.Get(5)
	if !ok {
		t.Fatal("expected entry for id 5")
	}
	if len(enc.Code) != 4 {
		t.Fatalf("expected 4 byte code, got %d", len(enc.Code))
	}
	if store.Len() != 1 {
		t.Fatalf("expected len 1, got %d", store.Len())
	}
	store.Delete(5)
	if _, ok := store.Get(5); ok {
		t.Fatal("expected entry to be gone after delete")
	}
}

func TestEncodeBinarySignBits(t *testing.T) {
	vector := []float32{1.0, -1.0, 0.0, 2.5, -0.1}
	code := EncodeBinary(vector)
	want := []bool{true, false, false, true, false}
	for i, w := range want {
		got := (code.Bits[i/8]>>uint(i%8))&1 == 1
		if got != w {
			t.Fatalf("bit %d: expected %v, got %v", i, w, got)
		}
	}
	if code.Norm <= 0 {
		t.Fatalf("expected positive norm, got %f", code.Norm)
	}
}

func TestBinaryStorePutGet(t *testing.T) {
	store := NewBinaryStore()
	store.Put(1, []float32{1, 1, 1, 1})
	code, ok := store.Get(1)
	if !ok {
		t.Fatal("expected entry for id 1")
	}
	if len(code.Bits) != 1 {
		t.Fatalf("expected 1 byte for 4 dims, got %d", len(code.Bits))
	}
}

func TestModeParsing(t *testing.T) {
	cases := map[string]Mode{
		"none":    None,
		"scalar8": Scalar8,
		"binary":  Binary,
		"bogus":   None,
	}
	for s, want := range cases {
		if got := ParseMode(s); got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", s, got, want)
		}
	}
}
