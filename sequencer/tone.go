package sequencer

// ToneTable maps a note index to a YM2149 tone period, twelve notes per
// octave from o1 C upward. Entry 0 exists for indexing only: note code 0
// is the rest.
var ToneTable = [96]uint16{
	3420, 3229, 3047, 2876, 2715, 2562, 2419, 2283, 2155, 2034, 1920, 1812, // o1
	1710, 1614, 1524, 1438, 1357, 1281, 1209, 1141, 1077, 1017, 960, 906,   // o2
	855, 807, 762, 719, 679, 641, 605, 571, 539, 508, 480, 453,             // o3
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,             // o4
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,             // o5
	107, 101, 95, 90, 85, 80, 76, 71, 67, 64, 60, 57,                       // o6
	53, 50, 48, 45, 42, 40, 38, 36, 34, 32, 30, 28,                         // o7
	27, 25, 24, 22, 21, 20, 19, 18, 17, 16, 15, 14,                         // o8
}

// MaxNote is the highest valid note code.
const MaxNote = len(ToneTable) - 1
