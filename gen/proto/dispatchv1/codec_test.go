package dispatchv1

import (
	"testing"
	"time"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestCodecRegistered(t *testing.T) {
	if encoding.GetCodec(CodecName) == nil {
		t.Fatalf("no codec registered under %q", CodecName)
	}
}

func TestCodecRoundTripsOfferPush(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	now := time.Now().Truncate(time.Second)
	in := &OfferPush{
		GigId:      "g1",
		WorkerId:   "w1",
		Category:   "plumbing",
		Urgency:    "asap",
		Tier:       2,
		Generation: 7,
		IssuedAt:   timestamppb.New(now),
		ExpiresAt:  timestamppb.New(now.Add(30 * time.Second)),
	}

	wire, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := new(OfferPush)
	if err := c.Unmarshal(wire, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.GigId != in.GigId || out.Tier != in.Tier || out.Generation != in.Generation {
		t.Fatalf("round trip mangled fields: %+v", out)
	}
	if !out.ExpiresAt.AsTime().Equal(in.ExpiresAt.AsTime()) {
		t.Fatalf("expires_at = %v, want %v", out.ExpiresAt.AsTime(), in.ExpiresAt.AsTime())
	}
}

func TestCodecUnmarshalRejectsGarbage(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if err := c.Unmarshal([]byte("not json"), new(PushAck)); err == nil {
		t.Fatal("garbage payload accepted")
	}
}
