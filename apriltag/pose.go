package apriltag

import "math"

// CameraParams holds the pinhole intrinsics needed to lift a homography
// into a metric 6-DoF pose: focal lengths in pixels and the principal
// point.
type CameraParams struct {
	Fx, Fy, Cx, Cy float64
}

// Pose is a rigid transform from tag frame to camera frame: X_cam = R*X_tag + T.
type Pose struct {
	R [3][3]float64
	T [3]float64
}

// EstimatePose recovers the tag's pose from its homography and known
// physical size (the full side length, in the same units the caller wants
// T expressed in). Planar targets are subject to a well-known two-fold
// pose ambiguity when viewed close to head-on: alt holds the second
// candidate whenever the reflected solution is far enough from the primary
// to be a meaningfully distinct pose, and is nil otherwise. Both poses are
// refined by orthogonal iteration before being ranked by reprojection
// error.
func EstimatePose(hom Homography, tagSize float64, cam CameraParams, tagCorners [4][2]float64) (primary Pose, alt *Pose) {
	kinv := [3][3]float64{
		{1 / cam.Fx, 0, -cam.Cx / cam.Fx},
		{0, 1 / cam.Fy, -cam.Cy / cam.Fy},
		{0, 0, 1},
	}
	hcam := matMul3x3(kinv, hom.H)

	r0, t0 := decomposeHomography(hcam, tagSize)
	pose0 := refinePose(r0, t0, tagSize, cam, tagCorners)

	r1, t1, ok := reflectedPoseCandidate(pose0)
	if !ok {
		return pose0, nil
	}
	pose1 := refinePose(r1, t1, tagSize, cam, tagCorners)

	e0 := reprojectionError(pose0, tagSize, cam, tagCorners)
	e1 := reprojectionError(pose1, tagSize, cam, tagCorners)

	if e0 <= e1 {
		return pose0, &pose1
	}
	return pose1, &pose0
}

// decomposeHomography extracts an initial rotation and translation from a
// homography already expressed in normalized camera coordinates (K
// removed), following the standard column-based decomposition: the first
// two rotation columns come directly from the homography's first two
// columns once rescaled to unit norm, the third is their cross product.
func decomposeHomography(hcam [3][3]float64, tagSize float64) ([3][3]float64, [3]float64) {
	h1 := [3]float64{hcam[0][0], hcam[1][0], hcam[2][0]}
	h2 := [3]float64{hcam[0][1], hcam[1][1], hcam[2][1]}
	h3 := [3]float64{hcam[0][2], hcam[1][2], hcam[2][2]}

	n1, n2 := vecNorm(h1), vecNorm(h2)
	scale := 2 / (n1 + n2)

	r1 := vecScale(h1, scale)
	r2 := vecScale(h2, scale)
	r3 := vecCross(r1, r2)
	t := vecScale(h3, scale*tagSize/2)

	rRaw := [3][3]float64{
		{r1[0], r2[0], r3[0]},
		{r1[1], r2[1], r3[1]},
		{r1[2], r2[2], r3[2]},
	}
	return projectToSO3(rRaw), t
}

// projectToSO3 finds the closest proper rotation matrix to m in Frobenius
// norm, via SVD: R = U*V^T, flipping the sign of the smallest singular
// vector if the naive result would have negative determinant.
func projectToSO3(m [3][3]float64) [3][3]float64 {
	u, v, _ := svd3x3(m)
	r := matMul3x3(u, transpose3x3(v))
	if det3x3(r) < 0 {
		for i := 0; i < 3; i++ {
			u[i][2] = -u[i][2]
		}
		r = matMul3x3(u, transpose3x3(v))
	}
	return r
}

// reflectedPoseCandidate returns the second pose consistent with the same
// homography under the classic planar ambiguity, by reflecting the tag
// plane as placed by pose1 across the plane perpendicular to the
// camera-to-tag direction n = T/|T|: R2 = (2*n*n^T - I) * R1 *
// diag(-1, -1, 1), keeping T fixed, so each tag-plane point R1*X becomes
// (I - 2*n*n^T) * R1*X. When the tag is viewed close to head-on this
// candidate is nearly identical to R1, so it is only reported (ok=true) when it differs from R1
// by more than 0.1 rad; otherwise the ambiguity is not worth reporting.
func reflectedPoseCandidate(pose1 Pose) (r2 [3][3]float64, t2 [3]float64, ok bool) {
	n := vecNorm(pose1.T)
	if n < 1e-9 {
		return [3][3]float64{}, [3]float64{}, false
	}
	nu := vecScale(pose1.T, 1/n)

	var refl [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := 2 * nu[r] * nu[c]
			if r == c {
				v -= 1
			}
			refl[r][c] = v
		}
	}

	r2 = matMul3x3(refl, pose1.R)
	for i := 0; i < 3; i++ {
		r2[i][0], r2[i][1] = -r2[i][0], -r2[i][1]
	}
	t2 = pose1.T
	if rotationAngle(pose1.R, r2) < 0.1 {
		return [3][3]float64{}, [3]float64{}, false
	}
	return r2, t2, true
}

// rotationAngle returns the angle, in radians, of the rotation that takes a
// to b: the rotation angle of a^T*b, recovered from its trace.
func rotationAngle(a, b [3][3]float64) float64 {
	rel := matMul3x3(transpose3x3(a), b)
	tr := rel[0][0] + rel[1][1] + rel[2][2]
	cosAngle := (tr - 1) / 2
	if cosAngle > 1 {
		cosAngle = 1
	}
	if cosAngle < -1 {
		cosAngle = -1
	}
	return math.Acos(cosAngle)
}

// refinePose runs orthogonal iteration (Lu, Hager & Mjolsness): each round
// projects the current camera-frame estimate of every tag corner onto that
// corner's fixed viewing ray via the ray's projection operator
// F_i = v_i*v_i^T / (v_i^T*v_i), then re-solves the absolute orientation
// between the tag corners and those ray-projected targets via SVD (Kabsch /
// Arun's method). The rays, and their projection operators, depend only on
// the observed pixel corners, so they are computed once before iterating.
func refinePose(r0 [3][3]float64, t0 [3]float64, tagSize float64, cam CameraParams, corners2D [4][2]float64) Pose {
	half := tagSize / 2
	obj := [4][3]float64{{-half, -half, 0}, {half, -half, 0}, {half, half, 0}, {-half, half, 0}}

	var f [4][3][3]float64
	for i, px := range corners2D {
		f[i] = rayProjectionMatrix(pixelRay(px, cam))
	}

	r, t := r0, t0
	for iter := 0; iter < 50; iter++ {
		var targets [4][3]float64
		for i, p := range obj {
			cam3 := vecAdd(matVec3(r, p), t)
			targets[i] = matVec3(f[i], cam3)
		}
		r, t = absoluteOrientation(obj, targets)
	}
	return Pose{R: r, T: t}
}

// pixelRay returns the unit-depth camera-frame ray through a pixel.
func pixelRay(px [2]float64, cam CameraParams) [3]float64 {
	return [3]float64{(px[0] - cam.Cx) / cam.Fx, (px[1] - cam.Cy) / cam.Fy, 1}
}

// rayProjectionMatrix returns F = v*v^T / (v^T*v), the operator that
// projects any point in space onto the line through the origin along v
// while preserving its component along v (i.e. its depth along the ray).
func rayProjectionMatrix(v [3]float64) [3][3]float64 {
	vtv := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	var f [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			f[r][c] = v[r] * v[c] / vtv
		}
	}
	return f
}

// absoluteOrientation solves for the rigid transform mapping obj onto
// target in a least-squares sense (Arun, Huang & Blostein / Kabsch),
// via SVD of the cross-covariance matrix.
func absoluteOrientation(obj, target [4][3]float64) ([3][3]float64, [3]float64) {
	var objC, targetC [3]float64
	for i := 0; i < 4; i++ {
		objC = vecAdd(objC, obj[i])
		targetC = vecAdd(targetC, target[i])
	}
	objC = vecScale(objC, 0.25)
	targetC = vecScale(targetC, 0.25)

	var h [3][3]float64
	for i := 0; i < 4; i++ {
		a := vecSub(obj[i], objC)
		b := vecSub(target[i], targetC)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h[r][c] += a[r] * b[c]
			}
		}
	}

	r := kabschRotation(h)
	t := vecSub(targetC, matVec3(r, objC))
	return r, t
}

// kabschRotation solves Wahba's problem for the cross-covariance matrix h
// = sum(a_i * b_i^T): the rotation R minimizing sum|R*a_i - b_i|^2 is
// V*U^T from h's SVD, with the sign of V's last column flipped if that
// would produce an improper (reflecting) rotation.
func kabschRotation(h [3][3]float64) [3][3]float64 {
	u, v, _ := svd3x3(h)
	r := matMul3x3(v, transpose3x3(u))
	if det3x3(r) < 0 {
		for i := 0; i < 3; i++ {
			v[i][2] = -v[i][2]
		}
		r = matMul3x3(v, transpose3x3(u))
	}
	return r
}

// reprojectionError sums squared pixel error between the tag's known
// corners reprojected through pose and the observed quad corners.
func reprojectionError(pose Pose, tagSize float64, cam CameraParams, corners2D [4][2]float64) float64 {
	half := tagSize / 2
	obj := [4][3]float64{{-half, -half, 0}, {half, -half, 0}, {half, half, 0}, {-half, half, 0}}

	var total float64
	for i, p := range obj {
		cam3 := vecAdd(matVec3(pose.R, p), pose.T)
		px := cam.Fx*cam3[0]/cam3[2] + cam.Cx
		py := cam.Fy*cam3[1]/cam3[2] + cam.Cy
		dx, dy := px-corners2D[i][0], py-corners2D[i][1]
		total += dx*dx + dy*dy
	}
	return total
}

func vecNorm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func vecScale(v [3]float64, s float64) [3]float64 {
	return [3]float64{v[0] * s, v[1] * s, v[2] * s}
}

func vecAdd(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func vecSub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func vecCross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func matVec3(m [3][3]float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}
