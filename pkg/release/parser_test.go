package release

import "testing"

func TestParse_DolbyVisionProfiles(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		profile DVProfile
		fel     bool
	}{
		{"profile 7 word", "Movie.2024.2160p.UHD.BluRay.Profile.7.x265-GRP", DVProfile7, false},
		{"p7 short", "Movie.2024.2160p.P7.x265-GRP", DVProfile7, false},
		{"fel implies 7", "Movie.2024.2160p.BluRay.DV.FEL.x265-GRP", DVProfile7, true},
		{"bl el spaced", "Movie.2024.2160p.BluRay.BL EL.x265-GRP", DVProfile7, true},
		{"explicit p8", "Movie.2024.2160p.WEB-DL.P8.x265-GRP", DVProfile8, false},
		{"explicit profile5", "Movie.2024.2160p.WEB-DL.Profile5.x265-GRP", DVProfile5, false},
		{"bare dolby vision", "Movie.2024.2160p.WEB-DL.Dolby.Vision.x265-GRP", DVProfile5, false},
		{"bare dovi", "Movie.2024.2160p.WEB-DL.DOVI.x265-GRP", DVProfile5, false},
		{"no dv token", "Movie.2024.2160p.WEB-DL.x265-GRP", DVProfileNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.title)
			if info == nil {
				t.Fatalf("Parse(%q) = nil, want non-nil", tt.title)
			}
			if info.DVProfile != tt.profile {
				t.Errorf("DVProfile = %v, want %v", info.DVProfile, tt.profile)
			}
			if info.IsFEL != tt.fel {
				t.Errorf("IsFEL = %v, want %v", info.IsFEL, tt.fel)
			}
		})
	}
}

func TestParse_Atmos(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"truehd atmos", "Movie.2024.2160p.BluRay.TrueHD.Atmos.x265-GRP", true},
		{"bare atmos", "Movie.2024.2160p.BluRay.DDP5.1.Atmos.x265-GRP", true},
		{"no atmos", "Movie.2024.2160p.BluRay.DTS-HD.MA.x265-GRP", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.title)
			if info == nil {
				t.Fatalf("Parse(%q) = nil", tt.title)
			}
			if info.HasAtmos != tt.want {
				t.Errorf("HasAtmos = %v, want %v", info.HasAtmos, tt.want)
			}
		})
	}
}

func TestParse_ResolutionAndSource(t *testing.T) {
	tests := []struct {
		name  string
		title string
		res   Resolution
		src   Source
	}{
		{"2160p bluray", "Movie.2024.2160p.BluRay.x265-GRP", Resolution2160p, SourceBluRay},
		{"4k alias", "Movie.2024.4K.UHD.BluRay.x265-GRP", Resolution2160p, SourceBluRay},
		{"1080p webdl", "Movie.2024.1080p.WEB-DL.x264-GRP", Resolution1080p, SourceWEBDL},
		{"720p hdtv", "Movie.2024.720p.HDTV.x264-GRP", Resolution720p, SourceHDTV},
		{"480p sd", "Movie.2024.480p.SD.x264-GRP", Resolution480p, SourceUnknown},
		{"unknown res", "Movie.2024.x264-GRP", ResolutionUnknown, SourceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.title)
			if info == nil {
				t.Fatalf("Parse(%q) = nil", tt.title)
			}
			if info.Resolution != tt.res {
				t.Errorf("Resolution = %v, want %v", info.Resolution, tt.res)
			}
			if info.Source != tt.src {
				t.Errorf("Source = %v, want %v", info.Source, tt.src)
			}
		})
	}
}

func TestParse_TitleAndYear(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
		year  int
	}{
		{"dotted", "The.Great.Movie.2024.2160p.BluRay.x265-GRP", "The Great Movie", 2024},
		{"spaced", "The Great Movie 2024 2160p BluRay x265-GRP", "The Great Movie", 2024},
		{"trailing year only", "The Great Movie 2024", "The Great Movie", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.title)
			if info == nil {
				t.Fatalf("Parse(%q) = nil", tt.title)
			}
			if info.Title != tt.want {
				t.Errorf("Title = %q, want %q", info.Title, tt.want)
			}
			if info.Year != tt.year {
				t.Errorf("Year = %d, want %d", info.Year, tt.year)
			}
		})
	}
}

func TestParse_NoYearReturnsNil(t *testing.T) {
	if info := Parse("Some.Release.Without.A.Year.x264-GRP"); info != nil {
		t.Errorf("Parse() = %+v, want nil", info)
	}
}
