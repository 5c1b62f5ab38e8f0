package sources

import (
	"reflect"
	"testing"
)

func TestSelectTracks(t *testing.T) {
	enASR := CaptionTrack{BaseURL: "a", LanguageCode: "en", Kind: KindASR}
	enManual := CaptionTrack{BaseURL: "b", LanguageCode: "en", Kind: KindManual}
	frManual := CaptionTrack{BaseURL: "c", LanguageCode: "fr", Kind: KindManual}
	enGBASR := CaptionTrack{BaseURL: "d", LanguageCode: "en-GB", Kind: KindASR}
	enUSManual := CaptionTrack{BaseURL: "e", LanguageCode: "en-US", Kind: KindManual}
	deASR := CaptionTrack{BaseURL: "f", LanguageCode: "de", Kind: KindASR}
	eng := CaptionTrack{BaseURL: "g", LanguageCode: "eng", Kind: KindManual}

	tests := []struct {
		name string
		in   []CaptionTrack
		want []CaptionTrack
	}{
		{
			name: "manual english first",
			in:   []CaptionTrack{enASR, enManual, frManual},
			want: []CaptionTrack{enManual, enASR, frManual},
		},
		{
			name: "stable among equal kinds",
			in:   []CaptionTrack{enGBASR, enASR, enUSManual, enManual},
			want: []CaptionTrack{enUSManual, enManual, enGBASR, enASR},
		},
		{
			name: "others keep original order",
			in:   []CaptionTrack{deASR, frManual, enASR},
			want: []CaptionTrack{enASR, deASR, frManual},
		},
		{
			name: "eng is not english",
			in:   []CaptionTrack{eng, enASR},
			want: []CaptionTrack{enASR, eng},
		},
		{
			name: "no english",
			in:   []CaptionTrack{frManual, deASR},
			want: []CaptionTrack{frManual, deASR},
		},
		{
			name: "empty",
			in:   nil,
			want: []CaptionTrack{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTracks(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTracks() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSelectTracksDoesNotMutateInput(t *testing.T) {
	in := []CaptionTrack{
		{BaseURL: "a", LanguageCode: "en", Kind: KindASR},
		{BaseURL: "b", LanguageCode: "en", Kind: KindManual},
	}
	_ = SelectTracks(in)
	if in[0].BaseURL != "a" || in[1].BaseURL != "b" {
		t.Errorf("input reordered: %+v", in)
	}
}
