//go:build cgo

package compute

/*
#cgo linux LDFLAGS: -lOpenCL
#cgo windows LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL

#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS

#ifdef __APPLE__
#include <OpenCL/cl.h>
#else
#include <CL/cl.h>
#endif

#include <stdlib.h>
#include <string.h>
#include <stdio.h>

// SHA-1 batch kernel: one work-item hashes one span of the packed input.
// Offsets and lengths are 64-bit, and the padding block carries the full
// 64-bit message bit length.
static const char* kernelSource =
"__kernel void sha1_batch(\n"
"    __global const uchar* input,\n"
"    __global const ulong* offsets,\n"
"    __global const ulong* lengths,\n"
"    __global uchar* output\n"
") {\n"
"    size_t gid = get_global_id(0);\n"
"    __global const uchar* msg = input + offsets[gid];\n"
"    ulong len = lengths[gid];\n"
"    ulong bit_len = len * 8UL;\n"
"\n"
"    // Room for the 0x80 marker plus the 8-byte length field: messages\n"
"    // with 56..63 trailing bytes need an extra all-padding block.\n"
"    ulong nblocks = (len + 8UL) / 64UL + 1UL;\n"
"\n"
"    uint h0 = 0x67452301u;\n"
"    uint h1 = 0xEFCDAB89u;\n"
"    uint h2 = 0x98BADCFEu;\n"
"    uint h3 = 0x10325476u;\n"
"    uint h4 = 0xC3D2E1F0u;\n"
"\n"
"    uchar chunk[64];\n"
"    uint w[80];\n"
"\n"
"    for (ulong blk = 0; blk < nblocks; blk++) {\n"
"        for (int i = 0; i < 64; i++) {\n"
"            ulong pos = blk * 64UL + (ulong)i;\n"
"            if (pos < len) {\n"
"                chunk[i] = msg[pos];\n"
"            } else if (pos == len) {\n"
"                chunk[i] = 0x80;\n"
"            } else {\n"
"                chunk[i] = 0;\n"
"            }\n"
"        }\n"
"        if (blk == nblocks - 1UL) {\n"
"            for (int i = 0; i < 8; i++) {\n"
"                chunk[56 + i] = (uchar)(bit_len >> (56 - 8 * i));\n"
"            }\n"
"        }\n"
"\n"
"        for (int i = 0; i < 16; i++) {\n"
"            w[i] = ((uint)chunk[4*i] << 24) | ((uint)chunk[4*i+1] << 16) |\n"
"                   ((uint)chunk[4*i+2] << 8) | (uint)chunk[4*i+3];\n"
"        }\n"
"        for (int i = 16; i < 80; i++) {\n"
"            uint t = w[i-3] ^ w[i-8] ^ w[i-14] ^ w[i-16];\n"
"            w[i] = (t << 1) | (t >> 31);\n"
"        }\n"
"\n"
"        uint a = h0, b = h1, c = h2, d = h3, e = h4;\n"
"        for (int i = 0; i < 80; i++) {\n"
"            uint f, k;\n"
"            if (i < 20) {\n"
"                f = (b & c) | (~b & d);\n"
"                k = 0x5A827999u;\n"
"            } else if (i < 40) {\n"
"                f = b ^ c ^ d;\n"
"                k = 0x6ED9EBA1u;\n"
"            } else if (i < 60) {\n"
"                f = (b & c) | (b & d) | (c & d);\n"
"                k = 0x8F1BBCDCu;\n"
"            } else {\n"
"                f = b ^ c ^ d;\n"
"                k = 0xCA62C1D6u;\n"
"            }\n"
"            uint t = ((a << 5) | (a >> 27)) + f + e + k + w[i];\n"
"            e = d; d = c; c = (b << 30) | (b >> 2); b = a; a = t;\n"
"        }\n"
"\n"
"        h0 += a; h1 += b; h2 += c; h3 += d; h4 += e;\n"
"    }\n"
"\n"
"    uint hh[5] = { h0, h1, h2, h3, h4 };\n"
"    for (int i = 0; i < 5; i++) {\n"
"        output[gid * 20 + i * 4]     = (uchar)(hh[i] >> 24);\n"
"        output[gid * 20 + i * 4 + 1] = (uchar)(hh[i] >> 16);\n"
"        output[gid * 20 + i * 4 + 2] = (uchar)(hh[i] >> 8);\n"
"        output[gid * 20 + i * 4 + 3] = (uchar)(hh[i]);\n"
"    }\n"
"}\n";

typedef struct {
    cl_context context;
    cl_command_queue queue;
    cl_program program;
    cl_kernel kernel;
} ClsumSession;

static cl_device_id* g_devices = NULL;
static int g_deviceCount = 0;
static int g_initialized = 0;

static void ensureInit(void) {
    if (g_initialized) return;
    g_initialized = 1;

    cl_uint numPlatforms = 0;
    clGetPlatformIDs(0, NULL, &numPlatforms);
    if (numPlatforms == 0) return;

    cl_platform_id* platforms = (cl_platform_id*)malloc(sizeof(cl_platform_id) * numPlatforms);
    clGetPlatformIDs(numPlatforms, platforms, NULL);

    // Count all devices across platforms
    int total = 0;
    for (cl_uint p = 0; p < numPlatforms; p++) {
        cl_uint nd = 0;
        clGetDeviceIDs(platforms[p], CL_DEVICE_TYPE_ALL, 0, NULL, &nd);
        total += nd;
    }
    if (total == 0) { free(platforms); return; }

    g_devices = (cl_device_id*)malloc(sizeof(cl_device_id) * total);
    int idx = 0;
    for (cl_uint p = 0; p < numPlatforms; p++) {
        cl_uint nd = 0;
        clGetDeviceIDs(platforms[p], CL_DEVICE_TYPE_ALL, 0, NULL, &nd);
        if (nd > 0) {
            clGetDeviceIDs(platforms[p], CL_DEVICE_TYPE_ALL, nd, g_devices + idx, NULL);
            idx += nd;
        }
    }
    g_deviceCount = idx;
    free(platforms);
}

int clsumDeviceCount(void) {
    ensureInit();
    return g_deviceCount;
}

char* clsumDeviceName(int index) {
    ensureInit();
    if (index < 0 || index >= g_deviceCount) return strdup("Unknown");
    char name[256];
    clGetDeviceInfo(g_devices[index], CL_DEVICE_NAME, sizeof(name), name, NULL);
    return strdup(name);
}

char* clsumDeviceVendor(int index) {
    ensureInit();
    if (index < 0 || index >= g_deviceCount) return strdup("Unknown");
    char vendor[256];
    clGetDeviceInfo(g_devices[index], CL_DEVICE_VENDOR, sizeof(vendor), vendor, NULL);
    return strdup(vendor);
}

unsigned long long clsumDeviceMem(int index) {
    ensureInit();
    if (index < 0 || index >= g_deviceCount) return 0;
    cl_ulong mem = 0;
    clGetDeviceInfo(g_devices[index], CL_DEVICE_GLOBAL_MEM_SIZE, sizeof(mem), &mem, NULL);
    return (unsigned long long)mem;
}

// 1 = CPU, 0 = anything else (GPU, dedicated accelerator)
int clsumDeviceIsCPU(int index) {
    ensureInit();
    if (index < 0 || index >= g_deviceCount) return 0;
    cl_device_type t = 0;
    clGetDeviceInfo(g_devices[index], CL_DEVICE_TYPE, sizeof(t), &t, NULL);
    return (t & CL_DEVICE_TYPE_CPU) ? 1 : 0;
}

void* clsumOpenSession(int deviceIndex) {
    ensureInit();
    if (deviceIndex < 0 || deviceIndex >= g_deviceCount) return NULL;

    cl_device_id dev = g_devices[deviceIndex];
    cl_int err;

    cl_context ctx = clCreateContext(NULL, 1, &dev, NULL, NULL, &err);
    if (err != CL_SUCCESS) return NULL;

    cl_command_queue queue = clCreateCommandQueue(ctx, dev, 0, &err);
    if (err != CL_SUCCESS) { clReleaseContext(ctx); return NULL; }

    const char* src = kernelSource;
    size_t srcLen = strlen(kernelSource);
    cl_program prog = clCreateProgramWithSource(ctx, 1, &src, &srcLen, &err);
    if (err != CL_SUCCESS) { clReleaseCommandQueue(queue); clReleaseContext(ctx); return NULL; }

    err = clBuildProgram(prog, 1, &dev, NULL, NULL, NULL);
    if (err != CL_SUCCESS) {
        char log[4096];
        clGetProgramBuildInfo(prog, dev, CL_PROGRAM_BUILD_LOG, sizeof(log), log, NULL);
        fprintf(stderr, "OpenCL build error: %s\n", log);
        clReleaseProgram(prog);
        clReleaseCommandQueue(queue);
        clReleaseContext(ctx);
        return NULL;
    }

    cl_kernel kern = clCreateKernel(prog, "sha1_batch", &err);
    if (err != CL_SUCCESS) {
        clReleaseProgram(prog);
        clReleaseCommandQueue(queue);
        clReleaseContext(ctx);
        return NULL;
    }

    ClsumSession* s = (ClsumSession*)calloc(1, sizeof(ClsumSession));
    s->context = ctx;
    s->queue = queue;
    s->program = prog;
    s->kernel = kern;
    return s;
}

// Creates the per-launch buffers, runs the kernel with one work-item per
// span, blocks until completion, copies the digests out and releases every
// buffer before returning. Returns 0 on success, an OpenCL error code (or
// -1 for a bad handle) otherwise.
int clsumDispatch(void* handle,
                  const unsigned char* input, size_t inputLen,
                  const unsigned long long* offsets,
                  const unsigned long long* lengths,
                  int count, unsigned char* out) {
    ClsumSession* s = (ClsumSession*)handle;
    if (!s) return -1;

    cl_int err = CL_SUCCESS;

    cl_mem inputBuf = clCreateBuffer(s->context, CL_MEM_READ_ONLY | CL_MEM_COPY_HOST_PTR,
                                     inputLen, (void*)input, &err);
    if (err != CL_SUCCESS) return err;

    cl_mem offsetBuf = clCreateBuffer(s->context, CL_MEM_READ_ONLY | CL_MEM_COPY_HOST_PTR,
                                      sizeof(cl_ulong) * count, (void*)offsets, &err);
    if (err != CL_SUCCESS) {
        clReleaseMemObject(inputBuf);
        return err;
    }

    cl_mem lengthBuf = clCreateBuffer(s->context, CL_MEM_READ_ONLY | CL_MEM_COPY_HOST_PTR,
                                      sizeof(cl_ulong) * count, (void*)lengths, &err);
    if (err != CL_SUCCESS) {
        clReleaseMemObject(offsetBuf);
        clReleaseMemObject(inputBuf);
        return err;
    }

    cl_mem outputBuf = clCreateBuffer(s->context, CL_MEM_WRITE_ONLY,
                                      (size_t)(20 * count), NULL, &err);
    if (err != CL_SUCCESS) {
        clReleaseMemObject(lengthBuf);
        clReleaseMemObject(offsetBuf);
        clReleaseMemObject(inputBuf);
        return err;
    }

    clSetKernelArg(s->kernel, 0, sizeof(cl_mem), &inputBuf);
    clSetKernelArg(s->kernel, 1, sizeof(cl_mem), &offsetBuf);
    clSetKernelArg(s->kernel, 2, sizeof(cl_mem), &lengthBuf);
    clSetKernelArg(s->kernel, 3, sizeof(cl_mem), &outputBuf);

    size_t globalSize = (size_t)count;
    err = clEnqueueNDRangeKernel(s->queue, s->kernel, 1, NULL, &globalSize, NULL, 0, NULL, NULL);
    if (err == CL_SUCCESS) err = clFinish(s->queue);
    if (err == CL_SUCCESS) {
        err = clEnqueueReadBuffer(s->queue, outputBuf, CL_TRUE, 0,
                                  (size_t)(20 * count), out, 0, NULL, NULL);
    }

    clReleaseMemObject(outputBuf);
    clReleaseMemObject(lengthBuf);
    clReleaseMemObject(offsetBuf);
    clReleaseMemObject(inputBuf);
    return err;
}

void clsumCloseSession(void* handle) {
    ClsumSession* s = (ClsumSession*)handle;
    if (!s) return;
    clReleaseKernel(s->kernel);
    clReleaseProgram(s->program);
    clReleaseCommandQueue(s->queue);
    clReleaseContext(s->context);
    free(s);
}
*/
import "C"
import (
	"context"
	"fmt"
	"unsafe"
)

// acceleratorBackends returns the OpenCL backend when built with CGo.
func acceleratorBackends() []Backend {
	return []Backend{openclBackend{}}
}

type openclBackend struct{}

func (openclBackend) Name() string { return "OpenCL" }

// Devices enumerates every OpenCL device across all platforms.
func (openclBackend) Devices() ([]DeviceInfo, error) {
	count := int(C.clsumDeviceCount())
	infos := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		cName := C.clsumDeviceName(C.int(i))
		cVendor := C.clsumDeviceVendor(C.int(i))
		class := ClassAccelerator
		if C.clsumDeviceIsCPU(C.int(i)) != 0 {
			class = ClassCPU
		}
		infos = append(infos, DeviceInfo{
			Name:      C.GoString(cName),
			Vendor:    C.GoString(cVendor),
			Class:     class,
			GlobalMem: uint64(C.clsumDeviceMem(C.int(i))),
		})
		C.free(unsafe.Pointer(cName))
		C.free(unsafe.Pointer(cVendor))
	}
	return infos, nil
}

func (openclBackend) Open(local int) (Session, error) {
	handle := C.clsumOpenSession(C.int(local))
	if handle == nil {
		return nil, fmt.Errorf("opencl: failed to build compute pipeline for device %d", local)
	}
	return &openclSession{handle: handle}, nil
}

type openclSession struct {
	handle unsafe.Pointer
}

func (s *openclSession) Dispatch(ctx context.Context, data []byte, spans []Span) ([][DigestSize]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, nil
	}
	if err := checkSpans(data, spans); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		// Zero-sized OpenCL buffers are invalid; the kernel never reads
		// past a span's length, so one dummy byte is safe.
		data = []byte{0}
	}

	offs := make([]C.ulonglong, len(spans))
	lens := make([]C.ulonglong, len(spans))
	for i, sp := range spans {
		offs[i] = C.ulonglong(sp.Offset)
		lens[i] = C.ulonglong(sp.Length)
	}
	out := make([]byte, DigestSize*len(spans))

	done := make(chan C.int, 1)
	go func() {
		done <- C.clsumDispatch(s.handle,
			(*C.uchar)(unsafe.Pointer(&data[0])), C.size_t(len(data)),
			&offs[0], &lens[0], C.int(len(spans)),
			(*C.uchar)(unsafe.Pointer(&out[0])))
	}()

	select {
	case rc := <-done:
		if rc != 0 {
			return nil, fmt.Errorf("opencl: kernel dispatch failed (code %d)", int(rc))
		}
	case <-ctx.Done():
		// The native wait cannot be interrupted; the dispatch goroutine is
		// abandoned and releases its buffers whenever the driver returns.
		return nil, ctx.Err()
	}

	digests := make([][DigestSize]byte, len(spans))
	for i := range digests {
		copy(digests[i][:], out[i*DigestSize:(i+1)*DigestSize])
	}
	return digests, nil
}

func (s *openclSession) Close() error {
	if s.handle != nil {
		C.clsumCloseSession(s.handle)
		s.handle = nil
	}
	return nil
}
