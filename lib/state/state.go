/*package state persists a Force declaration as a versioned binary file.
The file starts with a magic number and a version, so foreign files and
files from newer versions are rejected up front, and the magic number
doubles as a byte-order probe: a file written on a machine with the
opposite endianness reads back correctly. The bulk tables (particles and
exceptions) are zstd-compressed; the small declaration tables are stored
raw.*/
package state

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/DataDog/zstd"

	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/force"
)

const (
	// MagicNumber starts every declaration file.
	MagicNumber = 0x511ced93
	// ReverseMagicNumber is the magic number read with flipped endianness.
	ReverseMagicNumber = 0x93ed1c51
	Version            = 1
)

const (
	flagExceptionsUsePeriodic = 1 << iota
	flagIncludeDirectSpace
)

// fixedHeader is the fixed-width part of the file, written right after
// the magic number and version.
type fixedHeader struct {
	NumSubsets, RecipForceGroup int32
	Flags                       uint32
	Cutoff, EwaldTolerance      float64
	Alpha                       float64
	Nx, Ny, Nz                  int32
	NumParticles, NumExceptions int32
	NumGlobals, NumScaling      int32
	NumParticleOffsets          int32
	NumExceptionOffsets         int32
	NumDerivatives              int32
}

// Write serializes the declaration to w with the given byte order.
func Write(w io.Writer, f *force.Force, order binary.ByteOrder) error {
	if err := binary.Write(w, order, uint32(MagicNumber)); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint32(Version)); err != nil {
		return err
	}

	hd := makeHeader(f)
	if err := binary.Write(w, order, hd); err != nil { return err }

	if err := writeGlobals(w, f, order); err != nil { return err }
	if err := writeScaling(w, f, order); err != nil { return err }
	if err := writeDerivatives(w, f, order); err != nil { return err }
	if err := writeOffsets(w, f, order); err != nil { return err }

	if err := writeCompressed(w, order, particleTable(f, order)); err != nil {
		return err
	}
	return writeCompressed(w, order, exceptionTable(f, order))
}

// Read deserializes a declaration, detecting the byte order from the
// magic number.
func Read(r io.Reader) (*force.Force, error) {
	order, err := checkHeader(r)
	if err != nil { return nil, err }

	hd := &fixedHeader{}
	if err := binary.Read(r, order, hd); err != nil { return nil, err }

	f, err := force.New(int(hd.NumSubsets))
	if err != nil { return nil, err }
	if err := f.SetCutoff(hd.Cutoff); err != nil { return nil, err }
	if err := f.SetEwaldTolerance(hd.EwaldTolerance); err != nil {
		return nil, err
	}
	if err := f.SetPMEParameters(hd.Alpha, int(hd.Nx), int(hd.Ny),
		int(hd.Nz)); err != nil {
		return nil, err
	}
	if err := f.SetReciprocalForceGroup(int(hd.RecipForceGroup)); err != nil {
		return nil, err
	}
	f.SetExceptionsUsePeriodic(hd.Flags&flagExceptionsUsePeriodic != 0)
	f.SetIncludeDirectSpace(hd.Flags&flagIncludeDirectSpace != 0)

	globals, err := readStrings(r, order, int(hd.NumGlobals))
	if err != nil { return nil, err }
	defaults := make([]float64, hd.NumGlobals)
	if err := binary.Read(r, order, defaults); err != nil { return nil, err }
	for i, name := range globals {
		if _, err := f.AddGlobalParameter(name, defaults[i]); err != nil {
			return nil, err
		}
	}

	scaling, err := readScaling(r, order, int(hd.NumScaling), globals)
	if err != nil { return nil, err }

	derivs := make([]int32, hd.NumDerivatives)
	if err := binary.Read(r, order, derivs); err != nil { return nil, err }

	pOffsets := make([]particleOffsetRecord, hd.NumParticleOffsets)
	if err := binary.Read(r, order, pOffsets); err != nil { return nil, err }
	eOffsets := make([]exceptionOffsetRecord, hd.NumExceptionOffsets)
	if err := binary.Read(r, order, eOffsets); err != nil { return nil, err }

	if err := readParticles(r, order, f, int(hd.NumParticles)); err != nil {
		return nil, err
	}
	if err := readExceptions(r, order, f, int(hd.NumExceptions)); err != nil {
		return nil, err
	}

	// Scaling parameters, derivative requests, and offsets validate
	// against the declared entities, so they are replayed last.
	for _, s := range scaling {
		if _, err := f.AddScalingParameter(s.Name, s.Subset1, s.Subset2,
			s.Coulomb, s.LJ); err != nil {
			return nil, err
		}
	}
	for _, i := range derivs {
		if int(i) < 0 || int(i) >= len(globals) {
			return nil, errs.Configf("The file requests a derivative of "+
				"parameter %d, but only %d parameters are declared.",
				i, len(globals))
		}
		if err := f.AddScalingParameterDerivative(globals[i]); err != nil {
			return nil, err
		}
	}
	for _, o := range pOffsets {
		if int(o.Parameter) < 0 || int(o.Parameter) >= len(globals) {
			return nil, errs.Configf("The file references parameter %d in "+
				"a particle offset, but only %d parameters are declared.",
				o.Parameter, len(globals))
		}
		if _, err := f.AddParticleOffset(force.ParticleOffset{
			Parameter: globals[o.Parameter], Particle: int(o.Particle),
			ChargeScale: o.ChargeScale, SigmaScale: o.SigmaScale,
			EpsilonScale: o.EpsilonScale,
		}); err != nil {
			return nil, err
		}
	}
	for _, o := range eOffsets {
		if int(o.Parameter) < 0 || int(o.Parameter) >= len(globals) {
			return nil, errs.Configf("The file references parameter %d in "+
				"an exception offset, but only %d parameters are declared.",
				o.Parameter, len(globals))
		}
		if _, err := f.AddExceptionOffset(force.ExceptionOffset{
			Parameter: globals[o.Parameter], Exception: int(o.Exception),
			ChargeProdScale: o.ChargeProdScale, SigmaScale: o.SigmaScale,
			EpsilonScale: o.EpsilonScale,
		}); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteFile writes the declaration to a file in little-endian order.
func WriteFile(fname string, f *force.Force) error {
	fp, err := os.Create(fname)
	if err != nil { return err }
	defer fp.Close()
	return Write(fp, f, binary.LittleEndian)
}

// ReadFile reads a declaration file.
func ReadFile(fname string) (*force.Force, error) {
	fp, err := os.Open(fname)
	if err != nil { return nil, err }
	defer fp.Close()
	return Read(fp)
}

func makeHeader(f *force.Force) *fixedHeader {
	flags := uint32(0)
	if f.ExceptionsUsePeriodic() {
		flags |= flagExceptionsUsePeriodic
	}
	if f.IncludeDirectSpace() {
		flags |= flagIncludeDirectSpace
	}
	alpha, nx, ny, nz := f.PMEParameters()
	return &fixedHeader{
		NumSubsets:          int32(f.NumSubsets()),
		RecipForceGroup:     int32(f.ReciprocalForceGroup()),
		Flags:               flags,
		Cutoff:              f.Cutoff(),
		EwaldTolerance:      f.EwaldTolerance(),
		Alpha:               alpha,
		Nx:                  int32(nx), Ny: int32(ny), Nz: int32(nz),
		NumParticles:        int32(f.NumParticles()),
		NumExceptions:       int32(f.NumExceptions()),
		NumGlobals:          int32(f.NumGlobalParameters()),
		NumScaling:          int32(f.NumScalingParameters()),
		NumParticleOffsets:  int32(f.NumParticleOffsets()),
		NumExceptionOffsets: int32(f.NumExceptionOffsets()),
		NumDerivatives:      int32(len(f.ScalingParameterDerivatives())),
	}
}

// checkHeader reads the magic number and version, returning the file's
// byte order.
func checkHeader(r io.Reader) (binary.ByteOrder, error) {
	var magic, version uint32
	order := binary.ByteOrder(binary.LittleEndian)
	if err := binary.Read(r, order, &magic); err != nil { return nil, err }

	switch magic {
	case MagicNumber:
	case ReverseMagicNumber:
		order = binary.BigEndian
	default:
		return nil, errs.Configf("This is not a sliced-force declaration "+
			"file. Declaration files begin with the 32-bit integer %x or "+
			"%x, but this one begins with %x.",
			uint32(MagicNumber), uint32(ReverseMagicNumber), magic)
	}

	if err := binary.Read(r, order, &version); err != nil { return nil, err }
	if version > Version {
		return nil, errs.Configf("This file was written with format "+
			"version %d, but this code only reads up to version %d.",
			version, Version)
	}
	return order, nil
}

func writeStrings(w io.Writer, order binary.ByteOrder, strs []string) error {
	lengths := make([]uint32, len(strs))
	for i := range strs {
		lengths[i] = uint32(len(strs[i]))
	}
	if err := binary.Write(w, order, lengths); err != nil { return err }
	for i := range strs {
		if _, err := w.Write([]byte(strs[i])); err != nil { return err }
	}
	return nil
}

func readStrings(
	r io.Reader, order binary.ByteOrder, n int,
) ([]string, error) {
	lengths := make([]uint32, n)
	if err := binary.Read(r, order, lengths); err != nil { return nil, err }
	strs := make([]string, n)
	for i := range strs {
		b := make([]byte, lengths[i])
		if _, err := io.ReadFull(r, b); err != nil { return nil, err }
		strs[i] = string(b)
	}
	return strs, nil
}

func writeGlobals(w io.Writer, f *force.Force, order binary.ByteOrder) error {
	names := make([]string, f.NumGlobalParameters())
	defaults := make([]float64, f.NumGlobalParameters())
	for i := range names {
		p, _ := f.GlobalParameter(i)
		names[i], defaults[i] = p.Name, p.Default
	}
	if err := writeStrings(w, order, names); err != nil { return err }
	return binary.Write(w, order, defaults)
}

type scalingRecord struct {
	Parameter        int32
	Subset1, Subset2 int32
	Channels         uint32
}

func writeScaling(w io.Writer, f *force.Force, order binary.ByteOrder) error {
	records := make([]scalingRecord, f.NumScalingParameters())
	for i := range records {
		s, _ := f.ScalingParameter(i)
		index, err := f.GlobalParameterIndex(s.Name)
		if err != nil { return err }
		channels := uint32(0)
		if s.Coulomb {
			channels |= 1
		}
		if s.LJ {
			channels |= 2
		}
		records[i] = scalingRecord{int32(index), int32(s.Subset1),
			int32(s.Subset2), channels}
	}
	return binary.Write(w, order, records)
}

func readScaling(
	r io.Reader, order binary.ByteOrder, n int, globals []string,
) ([]force.ScalingParameter, error) {
	records := make([]scalingRecord, n)
	if err := binary.Read(r, order, records); err != nil { return nil, err }
	out := make([]force.ScalingParameter, n)
	for i, rec := range records {
		if int(rec.Parameter) < 0 || int(rec.Parameter) >= len(globals) {
			return nil, errs.Configf("The file references parameter %d in "+
				"a scaling parameter, but only %d parameters are declared.",
				rec.Parameter, len(globals))
		}
		out[i] = force.ScalingParameter{
			Name:    globals[rec.Parameter],
			Subset1: int(rec.Subset1), Subset2: int(rec.Subset2),
			Coulomb: rec.Channels&1 != 0, LJ: rec.Channels&2 != 0,
		}
	}
	return out, nil
}

func writeDerivatives(
	w io.Writer, f *force.Force, order binary.ByteOrder,
) error {
	names := f.ScalingParameterDerivatives()
	indices := make([]int32, len(names))
	for i, name := range names {
		index, err := f.GlobalParameterIndex(name)
		if err != nil { return err }
		indices[i] = int32(index)
	}
	return binary.Write(w, order, indices)
}

type particleOffsetRecord struct {
	Parameter, Particle                   int32
	ChargeScale, SigmaScale, EpsilonScale float64
}

type exceptionOffsetRecord struct {
	Parameter, Exception                      int32
	ChargeProdScale, SigmaScale, EpsilonScale float64
}

func writeOffsets(w io.Writer, f *force.Force, order binary.ByteOrder) error {
	pRecords := make([]particleOffsetRecord, f.NumParticleOffsets())
	for i := range pRecords {
		o, _ := f.ParticleOffset(i)
		index, err := f.GlobalParameterIndex(o.Parameter)
		if err != nil { return err }
		pRecords[i] = particleOffsetRecord{int32(index), int32(o.Particle),
			o.ChargeScale, o.SigmaScale, o.EpsilonScale}
	}
	if err := binary.Write(w, order, pRecords); err != nil { return err }

	eRecords := make([]exceptionOffsetRecord, f.NumExceptionOffsets())
	for i := range eRecords {
		o, _ := f.ExceptionOffset(i)
		index, err := f.GlobalParameterIndex(o.Parameter)
		if err != nil { return err }
		eRecords[i] = exceptionOffsetRecord{int32(index), int32(o.Exception),
			o.ChargeProdScale, o.SigmaScale, o.EpsilonScale}
	}
	return binary.Write(w, order, eRecords)
}

// particleTable serializes the bulk particle data for compression.
func particleTable(f *force.Force, order binary.ByteOrder) []byte {
	n := f.NumParticles()
	charges := make([]float64, n)
	sigmas := make([]float64, n)
	epsilons := make([]float64, n)
	subsets := make([]int32, n)
	for i := 0; i < n; i++ {
		p, _ := f.Particle(i)
		charges[i], sigmas[i], epsilons[i] = p.Charge, p.Sigma, p.Epsilon
		subsets[i] = int32(p.Subset)
	}

	buf := &bytes.Buffer{}
	binary.Write(buf, order, charges)
	binary.Write(buf, order, sigmas)
	binary.Write(buf, order, epsilons)
	binary.Write(buf, order, subsets)
	return buf.Bytes()
}

func readParticles(
	r io.Reader, order binary.ByteOrder, f *force.Force, n int,
) error {
	raw, err := readCompressed(r, order)
	if err != nil { return err }
	buf := bytes.NewReader(raw)

	charges := make([]float64, n)
	sigmas := make([]float64, n)
	epsilons := make([]float64, n)
	subsets := make([]int32, n)
	if err := binary.Read(buf, order, charges); err != nil { return err }
	if err := binary.Read(buf, order, sigmas); err != nil { return err }
	if err := binary.Read(buf, order, epsilons); err != nil { return err }
	if err := binary.Read(buf, order, subsets); err != nil { return err }

	for i := 0; i < n; i++ {
		if _, err := f.AddParticle(charges[i], sigmas[i], epsilons[i],
			int(subsets[i])); err != nil {
			return err
		}
	}
	return nil
}

func exceptionTable(f *force.Force, order binary.ByteOrder) []byte {
	n := f.NumExceptions()
	pairs := make([]int32, 2*n)
	values := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		e, _ := f.Exception(i)
		pairs[2*i], pairs[2*i+1] = int32(e.Particle1), int32(e.Particle2)
		values[3*i], values[3*i+1], values[3*i+2] =
			e.ChargeProd, e.Sigma, e.Epsilon
	}

	buf := &bytes.Buffer{}
	binary.Write(buf, order, pairs)
	binary.Write(buf, order, values)
	return buf.Bytes()
}

func readExceptions(
	r io.Reader, order binary.ByteOrder, f *force.Force, n int,
) error {
	raw, err := readCompressed(r, order)
	if err != nil { return err }
	buf := bytes.NewReader(raw)

	pairs := make([]int32, 2*n)
	values := make([]float64, 3*n)
	if err := binary.Read(buf, order, pairs); err != nil { return err }
	if err := binary.Read(buf, order, values); err != nil { return err }

	for i := 0; i < n; i++ {
		if _, err := f.AddException(int(pairs[2*i]), int(pairs[2*i+1]),
			values[3*i], values[3*i+1], values[3*i+2], false); err != nil {
			return err
		}
	}
	return nil
}

// writeCompressed writes a zstd block preceded by its compressed and raw
// sizes.
func writeCompressed(w io.Writer, order binary.ByteOrder, raw []byte) error {
	compressed, err := zstd.Compress(nil, raw)
	if err != nil {
		return errs.Backendf("Compressing a %d-byte table failed: %s",
			len(raw), err.Error())
	}
	if err := binary.Write(w, order, uint64(len(compressed))); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint64(len(raw))); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

func readCompressed(r io.Reader, order binary.ByteOrder) ([]byte, error) {
	var compressedLen, rawLen uint64
	if err := binary.Read(r, order, &compressedLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, order, &rawLen); err != nil { return nil, err }

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil { return nil, err }

	raw, err := zstd.Decompress(make([]byte, 0, rawLen), compressed)
	if err != nil {
		return nil, errs.Backendf("Decompressing a %d-byte table failed: "+
			"%s", compressedLen, err.Error())
	}
	return raw, nil
}
