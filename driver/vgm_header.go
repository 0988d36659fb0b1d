package driver

import "fmt"

const vgmMagic = "Vgm "

// headerField is a little-endian VGM header field present from minVersion
// onwards.
type headerField struct {
	name       string
	off, size  int
	minVersion uint32
}

var vgmFields = []headerField{
	{"eof", 0x04, 4, 100},
	{"clock_sn76489", 0x0C, 4, 100},
	{"clock_ym2413", 0x10, 4, 100},
	{"offset_gd3", 0x14, 4, 100},
	{"total_samples", 0x18, 4, 100},
	{"offset_loop", 0x1C, 4, 100},
	{"loop_samples", 0x20, 4, 100},
	{"rate", 0x24, 4, 101},
	{"sn76489_fb", 0x28, 2, 110},
	{"sn76489_w", 0x2A, 1, 110},
	{"sn76489_f", 0x2B, 1, 151},
	{"clock_ym2612", 0x2C, 4, 110},
	{"clock_ym2151", 0x30, 4, 110},
	{"vgm_data_offset", 0x34, 4, 150},
	{"sega_pcm_clock", 0x38, 4, 151},
	{"spcm_interface", 0x3C, 4, 151},
	{"clock_rf5c68", 0x40, 4, 151},
	{"clock_ym2203", 0x44, 4, 151},
	{"clock_ym2608", 0x48, 4, 151},
	{"clock_ym2610_b", 0x4C, 4, 151},
	{"clock_ym3812", 0x50, 4, 151},
	{"clock_ym3526", 0x54, 4, 151},
	{"clock_y8950", 0x58, 4, 151},
	{"clock_ymf262", 0x5C, 4, 151},
	{"clock_ymf278_b", 0x60, 4, 151},
	{"clock_ymf271", 0x64, 4, 151},
	{"clock_ymz280b", 0x68, 4, 151},
	{"clock_rf5c164", 0x6C, 4, 151},
	{"clock_pwm", 0x70, 4, 151},
	{"clock_ay8910", 0x74, 4, 151},
	{"ay8910_chip_type", 0x78, 1, 151},
	{"ay8910_flag", 0x79, 2, 151},
	{"volume_modifier", 0x7C, 1, 160},
	{"loop_base", 0x7E, 1, 160},
	{"loop_modifier", 0x7F, 1, 151},
	{"clock_gb_dmg", 0x80, 4, 161},
	{"clock_nes_apu", 0x84, 4, 161},
	{"clock_multi_pcm", 0x88, 4, 161},
	{"clock_upd7759", 0x8C, 4, 161},
	{"clock_okim6258", 0x90, 4, 161},
	{"okim6258_flag", 0x94, 1, 161},
	{"k054539_flag", 0x95, 1, 161},
	{"c140_chip_type", 0x96, 1, 161},
	{"clock_okim6295", 0x98, 4, 161},
	{"clock_k051649", 0x9C, 4, 161},
	{"clock_k054539", 0xA0, 4, 161},
	{"clock_huc6280", 0xA4, 4, 161},
	{"clock_c140", 0xA8, 4, 161},
	{"clock_k053260", 0xAC, 4, 161},
	{"clock_pokey", 0xB0, 4, 161},
	{"clock_qsound", 0xB4, 4, 161},
	{"clock_scsp", 0xB8, 4, 171},
	{"extra_hdr_ofs", 0xBC, 4, 170},
	{"clock_wonder_swan", 0xC0, 4, 171},
	{"clock_vsu", 0xC4, 4, 171},
	{"clock_saa1099", 0xC8, 4, 171},
	{"clock_es5503", 0xCC, 4, 171},
	{"clock_es5506", 0xD0, 4, 171},
	{"es5503_amount_channel", 0xD4, 1, 171},
	{"es5506_amount_channel", 0xD5, 1, 171},
	{"c352_clock_divider", 0xD6, 1, 171},
	{"clock_x1_010", 0xD8, 4, 171},
	{"clock_c352", 0xDC, 4, 171},
	{"clock_ga20", 0xE0, 4, 171},
}

// bcdVersion turns the packed version field (0x00000171) into 171.
func bcdVersion(v uint32) uint32 {
	var out, mul uint32 = 0, 1
	for ; v != 0; v >>= 4 {
		d := v & 0xF
		if d > 9 {
			return 0
		}
		out += d * mul
		mul *= 10
	}
	return out
}

// parseVGMHeader decodes the fields valid for the file's version. Fields
// newer than the version read as zero.
func parseVGMHeader(data []byte) (Meta, error) {
	if len(data) < 0x40 || string(data[:4]) != vgmMagic {
		return nil, fmt.Errorf("%w: not a VGM file", ErrFormat)
	}
	version := bcdVersion(le(data, 0x08, 4))
	if version < 100 {
		return nil, fmt.Errorf("%w: unsupported VGM version %x", ErrFormat, le(data, 0x08, 4))
	}
	// Fields past the start of command data belong to the stream.
	limit := vgmDataStart(data, version)
	m := Meta{"version": version}
	for _, f := range vgmFields {
		var v uint32
		if version >= f.minVersion && f.off+f.size <= limit {
			v = le(data, f.off, f.size)
		}
		m[f.name] = v
	}
	return m, nil
}

// vgmDataStart returns the offset of the first command.
func vgmDataStart(data []byte, version uint32) int {
	if version >= 150 {
		if off := le(data, 0x34, 4); off != 0 {
			return 0x34 + int(off)
		}
	}
	return 0x40
}
