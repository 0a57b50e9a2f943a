package stream

import "testing"

func TestIsEngineNoise(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want bool
	}{
		{
			name: "tensor diagnostic",
			in:   "Buffer requirements not found for tensor 0x1a2b3c4d5e6f",
			want: true,
		},
		{
			name: "bare hex address",
			in:   "0x1a2b3c4d5e6f",
			want: true,
		},
		{
			name: "bare hex address with whitespace",
			in:   "  0xDEADBEEF\n",
			want: true,
		},
		{
			name: "short hex run inside text",
			in:   "The answer is 0x1",
			want: false,
		},
		{
			name: "hex address inside sentence",
			in:   "pointer 0x1a2b3c4d5e6f was freed",
			want: false,
		},
		{
			name: "short bare hex",
			in:   "0x1",
			want: false,
		},
		{
			name: "plain text",
			in:   "hello",
			want: false,
		},
		{
			name: "empty",
			in:   "",
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsEngineNoise(tc.in); got != tc.want {
				t.Fatalf("IsEngineNoise(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
