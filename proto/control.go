package proto

import "github.com/yunkya2/smbfs-x68k/smbfs"

// Control payload limits.
const (
	maxURLLen    = 1024
	maxStringLen = 256
	maxEnvCount  = 256
)

// EncodeMountArgs serializes a mount command payload.
func EncodeMountArgs(spec smbfs.MountSpec) ([]byte, error) {
	e := NewEncoder(256)
	if err := e.WriteString(spec.URL); err != nil {
		return nil, err
	}
	if err := e.WriteString(spec.Username); err != nil {
		return nil, err
	}
	if err := e.WriteString(spec.Password); err != nil {
		return nil, err
	}
	e.WriteU16(uint16(len(spec.Env)))
	for _, kv := range spec.Env {
		if err := e.WriteString(kv); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

// DecodeMountArgs parses a mount command payload.
func DecodeMountArgs(b []byte) (smbfs.MountSpec, error) {
	var spec smbfs.MountSpec
	d := NewDecoder(b)
	var err error
	if spec.URL, err = d.ReadString(maxURLLen); err != nil {
		return spec, err
	}
	if spec.Username, err = d.ReadString(maxStringLen); err != nil {
		return spec, err
	}
	if spec.Password, err = d.ReadString(maxStringLen); err != nil {
		return spec, err
	}
	n, err := d.ReadU16()
	if err != nil {
		return spec, err
	}
	if n > maxEnvCount {
		n = maxEnvCount
	}
	for i := 0; i < int(n); i++ {
		kv, err := d.ReadString(maxURLLen)
		if err != nil {
			return spec, err
		}
		spec.Env = append(spec.Env, kv)
	}
	return spec, nil
}

// EncodeMountInfo serializes a getmount response payload.
func EncodeMountInfo(info smbfs.MountInfo) ([]byte, error) {
	e := NewEncoder(128)
	for _, s := range []string{info.Server, info.Share, info.RootPath, info.Username} {
		if err := e.WriteString(s); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

// DecodeMountInfo parses a getmount response payload.
func DecodeMountInfo(b []byte) (smbfs.MountInfo, error) {
	var info smbfs.MountInfo
	d := NewDecoder(b)
	var err error
	if info.Server, err = d.ReadString(maxStringLen); err != nil {
		return info, err
	}
	if info.Share, err = d.ReadString(maxStringLen); err != nil {
		return info, err
	}
	if info.RootPath, err = d.ReadString(maxURLLen); err != nil {
		return info, err
	}
	info.Username, err = d.ReadString(maxStringLen)
	return info, err
}

// EncodeMemInfo serializes a getmeminfo response payload.
func EncodeMemInfo(info smbfs.MemInfo) []byte {
	e := NewEncoder(8)
	e.WriteU32(info.Total)
	e.WriteU32(info.Used)
	return e.Bytes()
}

// DecodeMemInfo parses a getmeminfo response payload.
func DecodeMemInfo(b []byte) (smbfs.MemInfo, error) {
	var info smbfs.MemInfo
	d := NewDecoder(b)
	var err error
	if info.Total, err = d.ReadU32(); err != nil {
		return info, err
	}
	info.Used, err = d.ReadU32()
	return info, err
}
