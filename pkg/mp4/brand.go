package mp4

// Brand constants for ftyp major_brand / compatible_brands, covering the
// common ISOBMFF and QuickTime-compatibility 4CCs.
var (
	BrandIsom = [4]byte{'i', 's', 'o', 'm'}
	BrandIso2 = [4]byte{'i', 's', 'o', '2'}
	BrandIso4 = [4]byte{'i', 's', 'o', '4'}
	BrandIso5 = [4]byte{'i', 's', 'o', '5'}
	BrandIso6 = [4]byte{'i', 's', 'o', '6'}
	BrandMp41 = [4]byte{'m', 'p', '4', '1'}
	BrandMp42 = [4]byte{'m', 'p', '4', '2'}
	BrandQT   = [4]byte{'q', 't', ' ', ' '}
	BrandM4A  = [4]byte{'M', '4', 'A', ' '}
	BrandM4V  = [4]byte{'M', '4', 'V', ' '}
	Brand3GP4 = [4]byte{'3', 'g', 'p', '4'}
	Brand3GP5 = [4]byte{'3', 'g', 'p', '5'}
	Brand3GP6 = [4]byte{'3', 'g', 'p', '6'}
)

// IsQuickTimeCompatible reports whether major or any compatible brand is
// QuickTime's own "qt  ", one of the two predicates
// sampletable.AllowsNegativeComposition accepts.
func IsQuickTimeCompatible(major [4]byte, compatible [][4]byte) bool {
	if major == BrandQT {
		return true
	}
	for _, c := range compatible {
		if c == BrandQT {
			return true
		}
	}
	return false
}

// IsMP4V1Only reports whether a file declares only the legacy MP4 v1
// brands (mp41) without any iso2+/mp42 brand, the condition under which
// pkg/mux.shouldWriteIods emits an iods box (DESIGN.md Open Question 3).
func IsMP4V1Only(major [4]byte, compatible [][4]byte) bool {
	hasMp41 := major == BrandMp41
	for _, c := range compatible {
		if c == BrandMp41 {
			hasMp41 = true
		}
		if c == BrandMp42 || c == BrandIso2 || c == BrandIso4 || c == BrandIso5 || c == BrandIso6 {
			return false
		}
	}
	if major == BrandMp42 || major == BrandIso2 || major == BrandIso4 || major == BrandIso5 || major == BrandIso6 {
		return false
	}
	return hasMp41
}
