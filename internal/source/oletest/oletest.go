// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oletest builds minimal OLE2 compound files for tests. Every
// stream is empty; only the directory names matter to format detection.
package oletest

import (
	"encoding/binary"
	"unicode/utf16"
)

const (
	sectorSize = 512
	entrySize  = 128

	freeSect   = 0xFFFFFFFF
	endOfChain = 0xFFFFFFFE
	fatSect    = 0xFFFFFFFD
	noStream   = 0xFFFFFFFF

	typeStream = 2
	typeRoot   = 5
)

// Container returns a version 3 compound file whose root storage holds one
// empty stream per name. At most three names fit the single directory
// sector.
func Container(streams ...string) []byte {
	if len(streams) > 3 {
		panic("oletest: at most three streams")
	}
	buf := make([]byte, 3*sectorSize)
	le := binary.LittleEndian

	// Header.
	copy(buf, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(buf[24:], 0x003E)
	le.PutUint16(buf[26:], 3)
	le.PutUint16(buf[28:], 0xFFFE)
	le.PutUint16(buf[30:], 9)
	le.PutUint16(buf[32:], 6)
	le.PutUint32(buf[44:], 1)
	le.PutUint32(buf[48:], 1)
	le.PutUint32(buf[56:], 4096)
	le.PutUint32(buf[60:], endOfChain)
	le.PutUint32(buf[68:], endOfChain)
	le.PutUint32(buf[76:], 0)
	for off := 80; off < sectorSize; off += 4 {
		le.PutUint32(buf[off:], freeSect)
	}

	// Sector 0 is the FAT; sector 1 the directory.
	fat := buf[sectorSize : 2*sectorSize]
	for off := 0; off < sectorSize; off += 4 {
		le.PutUint32(fat[off:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)

	dir := buf[2*sectorSize:]
	child := uint32(noStream)
	if len(streams) > 0 {
		child = 1
	}
	writeEntry(dir[0:], "Root Entry", typeRoot, noStream, child)
	for i, name := range streams {
		right := uint32(noStream)
		if i+1 < len(streams) {
			right = uint32(i + 2)
		}
		writeEntry(dir[(i+1)*entrySize:], name, typeStream, right, noStream)
	}
	for i := len(streams) + 1; i < sectorSize/entrySize; i++ {
		e := dir[i*entrySize:]
		le.PutUint32(e[68:], noStream)
		le.PutUint32(e[72:], noStream)
		le.PutUint32(e[76:], noStream)
	}
	return buf
}

func writeEntry(e []byte, name string, objType byte, right, child uint32) {
	le := binary.LittleEndian
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		le.PutUint16(e[i*2:], u)
	}
	le.PutUint16(e[64:], uint16((len(units)+1)*2))
	e[66] = objType
	e[67] = 1 // black
	le.PutUint32(e[68:], noStream)
	le.PutUint32(e[72:], right)
	le.PutUint32(e[76:], child)
	le.PutUint32(e[116:], endOfChain)
}
